// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"math"
	"slices"
	"testing"

	"github.com/zintix-labs/moneycart/errs"
)

func TestCoreDeterminism(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		f, ok := FactoryByName(name)
		if !ok {
			t.Fatalf("factory %s missing", name)
		}
		c1 := New(f.New(7))
		c2 := New(f.New(7))
		for i := 0; i < 5; i++ {
			if c1.Uint64() != c2.Uint64() {
				t.Fatalf("[%s] Uint64 mismatch at %d", name, i)
			}
		}
		if c1.IntN(10) != c2.IntN(10) {
			t.Fatalf("[%s] IntN mismatch", name)
		}
	}
	if _, ok := FactoryByName("mt19937"); ok {
		t.Fatalf("unknown factory should not resolve")
	}
}

func TestSnapshotRestore(t *testing.T) {
	for _, name := range []string{"pcg64", "pcg32"} {
		f, _ := FactoryByName(name)
		c := New(f.New(42))
		c.Uint64()
		snap, err := c.Snapshot()
		if err != nil {
			t.Fatalf("[%s] snapshot: %v", name, err)
		}
		want := []int{c.IntN(100), c.IntN(100), c.IntN(100)}
		if err := c.Restore(snap); err != nil {
			t.Fatalf("[%s] restore: %v", name, err)
		}
		got := []int{c.IntN(100), c.IntN(100), c.IntN(100)}
		if !slices.Equal(want, got) {
			t.Fatalf("[%s] restore did not replay: %v vs %v", name, want, got)
		}
	}
}

func TestPCG32RestoreRejectsGarbage(t *testing.T) {
	r := newPCG32WithSeed(1)
	if err := r.Restore([]byte{1, 2, 3}); err == nil {
		t.Fatalf("short snapshot should fail")
	}
	bad := make([]byte, pcg32StateLen) // inc = 0 is even
	if err := r.Restore(bad); err == nil {
		t.Fatalf("even increment should fail")
	}
}

func TestPCG64SnapshotPortable(t *testing.T) {
	a := newPCG64WithSeed(5)
	a.Uint64()
	snap, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != pcg64StateLen {
		t.Fatalf("snapshot length %d, want %d", len(snap), pcg64StateLen)
	}
	b := newPCG64WithSeed(99)
	if err := b.Restore(snap); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatalf("restored generator diverged at %d", i)
		}
	}
	for _, bad := range [][]byte{nil, {1, 2, 3}, make([]byte, pcg64StateLen+4)} {
		err := b.Restore(bad)
		if err == nil {
			t.Fatalf("restore of %d bytes should fail", len(bad))
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("restore error level: %v", err)
		}
	}
}

func TestSample(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Sample(0, 3); got != nil {
		t.Fatalf("expected nil for empty population, got %v", got)
	}
	if got := c.Sample(5, 0); got != nil {
		t.Fatalf("expected nil for k=0, got %v", got)
	}
	for i := 0; i < 200; i++ {
		got := c.Sample(6, 2)
		if len(got) != 2 || got[0] == got[1] {
			t.Fatalf("expected 2 distinct indices, got %v", got)
		}
		for _, v := range got {
			if v < 0 || v >= 6 {
				t.Fatalf("index out of range: %d", v)
			}
		}
	}
	all := c.Sample(4, 10)
	slices.Sort(all)
	if !slices.Equal(all, []int{0, 1, 2, 3}) {
		t.Fatalf("k > n should return the whole population, got %v", all)
	}
}

func TestChanceAndBetween(t *testing.T) {
	c := New(Default().New(3))
	if c.Chance(0, 2) || !c.Chance(2, 2) {
		t.Fatalf("degenerate chances wrong")
	}
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if c.Chance(1, 2) {
			hits++
		}
	}
	if p := float64(hits) / n; math.Abs(p-0.5) > 0.02 {
		t.Fatalf("coin flip biased: %.3f", p)
	}
	for i := 0; i < 100; i++ {
		if v := c.Between(1, 2); v < 1 || v > 2 {
			t.Fatalf("Between out of range: %d", v)
		}
	}
	if c.Between(3, 3) != 3 {
		t.Fatalf("Between on a single value")
	}
}

func TestPickAndShuffle(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}
	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
	if v := c.ExpFloat64(); v <= 0 || math.IsInf(v, 0) {
		t.Fatalf("unexpected ExpFloat64 value: %v", v)
	}
}

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

package sampler

import (
	"errors"
	"math"
	"testing"

	"github.com/zintix-labs/moneycart/sdk/core"
)

// checkDistribution 驗證抽樣結果的分佈是否符合預期權重
func checkDistribution(t *testing.T, name string, weights []int, counts map[int]int, samples int, tolerance float64) {
	t.Helper()
	total := 0
	for _, w := range weights {
		total += w
	}
	for i, w := range weights {
		if w == 0 {
			if counts[i] > 0 {
				t.Errorf("[%s] expected 0 samples for index %d (weight 0), got %d", name, i, counts[i])
			}
			continue
		}
		want := float64(w) / float64(total)
		got := float64(counts[i]) / float64(samples)
		if diff := math.Abs(want - got); diff > tolerance {
			t.Errorf("[%s] index %d: expected prob %.3f, got %.3f (diff %.3f > tol %.3f)", name, i, want, got, diff, tolerance)
		}
	}
}

func TestTablePreconditions(t *testing.T) {
	cases := []struct {
		name    string
		labels  []string
		weights []int
		want    error
	}{
		{"empty", nil, nil, ErrEmptyTable},
		{"all zero", []string{"a", "b"}, []int{0, 0}, ErrZeroWeights},
		{"negative", []string{"a", "b"}, []int{3, -1}, ErrNegativeWeight},
		{"mismatch", []string{"a"}, []int{1, 2}, ErrLenMismatch},
		{"overflow", []string{"a", "b"}, []int{math.MaxInt, 1}, ErrWeightOverflow},
	}
	for _, tc := range cases {
		_, err := NewTable(tc.labels, tc.weights)
		if !errors.Is(err, tc.want) {
			t.Errorf("[%s] expected %v, got %v", tc.name, tc.want, err)
		}
	}
	c := core.New(core.Default().New(1))
	if _, err := WeightedPick(c, []int{0, 1, 2}, []int{0, 0, 0}); !errors.Is(err, ErrZeroWeights) {
		t.Fatalf("WeightedPick must reject an all-zero table, got %v", err)
	}
}

func TestTableDistribution(t *testing.T) {
	c := core.New(core.Default().New(2024))
	weights := []int{5, 3, 1}
	tb := MustTable([]int{0, 1, 2}, weights)
	const n = 90000
	counts := map[int]int{}
	for i := 0; i < n; i++ {
		counts[tb.Pick(c)]++
	}
	checkDistribution(t, "spawn-count", weights, counts, n, 0.01)
}

func TestTableZeroWeightNeverPicked(t *testing.T) {
	c := core.New(core.Default().New(5))
	tb := MustTable([]string{"coin", "reset", "payer"}, []int{4, 0, 1})
	for i := 0; i < 5000; i++ {
		if tb.Pick(c) == "reset" {
			t.Fatalf("zero-weight label was picked")
		}
	}
	if tb.Weight("reset") != 0 || tb.Weight("coin") != 4 || tb.Total() != 5 || tb.Len() != 3 {
		t.Fatalf("table accessors wrong")
	}
}

// 逐項扣減：同一個 r 必須對應宣告順序中的同一個標籤
func TestTableSubtractOrder(t *testing.T) {
	tb := MustTable([]string{"a", "b", "c"}, []int{2, 0, 3})
	c1 := core.New(core.Default().New(77))
	c2 := core.New(core.Default().New(77))
	for i := 0; i < 100; i++ {
		r := c1.IntN(tb.Total())
		want := "a"
		if r >= 2 {
			want = "c"
		}
		if got := tb.Pick(c2); got != want {
			t.Fatalf("r=%d expected %s, got %s", r, want, got)
		}
	}
}

func TestEntriesIsCopy(t *testing.T) {
	tb := MustTable([]int{1, 2}, []int{1, 1})
	es := tb.Entries()
	es[0].Weight = 100
	if tb.Weight(1) != 1 {
		t.Fatalf("Entries must not expose internal storage")
	}
}

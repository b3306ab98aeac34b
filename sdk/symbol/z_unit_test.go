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

package symbol

import (
	"math"
	"testing"
)

func TestCounterpartAndBase(t *testing.T) {
	cases := []struct {
		k      Kind
		p      Kind
		hasP   bool
		family Kind
	}{
		{Collector, PCollector, true, Collector},
		{Payer, PPayer, true, Payer},
		{Sniper, PSniper, true, Sniper},
		{ComboCP, PComboCP, true, ComboCP},
		{ArmsDealer, PArmsDealer, true, ArmsDealer},
		{PPayer, PPayer, true, Payer},
		{Necromancer, 0, false, Necromancer},
		{Coin, 0, false, Coin},
		{ResetPlus, 0, false, ResetPlus},
	}
	for _, tc := range cases {
		p, ok := tc.k.Counterpart()
		if ok != tc.hasP || (ok && p != tc.p) {
			t.Errorf("%s: counterpart=%s,%v want %s,%v", tc.k, p, ok, tc.p, tc.hasP)
		}
		if tc.k.Base() != tc.family {
			t.Errorf("%s: base=%s want %s", tc.k, tc.k.Base(), tc.family)
		}
	}
}

func TestPersistentOnlyForPVariants(t *testing.T) {
	for _, k := range Kinds() {
		want := k >= PCollector
		if k.Persistent() != want {
			t.Errorf("%s persistent=%v", k, k.Persistent())
		}
		if want && k.PersistentRank() < 0 {
			t.Errorf("%s missing from persistent order", k)
		}
		if !want && k != Coin && k.TransientRank() < 0 {
			t.Errorf("%s missing from transient order", k)
		}
	}
	if Coin.TransientRank() != -1 {
		t.Fatalf("coin has no effect and must not be ordered")
	}
	if ArmsDealer.TransientRank() != 0 || ResetPlus.TransientRank() != len(TransientOrder)-1 {
		t.Fatalf("unexpected transient order: %v", TransientOrder)
	}
}

func TestRevivableFamilies(t *testing.T) {
	for _, k := range []Kind{Collector, Payer, ComboCP, Sniper, PCollector, PPayer, PComboCP, PSniper} {
		if !k.Revivable() || !k.Upgradable() {
			t.Errorf("%s should be revivable", k)
		}
	}
	for _, k := range []Kind{Coin, Necromancer, Unlocker, ArmsDealer, PArmsDealer, Upgrader, ResetPlus} {
		if k.Revivable() {
			t.Errorf("%s should not be revivable", k)
		}
	}
}

func TestParseKindText(t *testing.T) {
	for _, k := range Kinds() {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Fatalf("unmarshal %s: %v %v", b, got, err)
		}
	}
	if k, ok := ParseKind(" P-Arms-Dealer "); !ok || k != PArmsDealer {
		t.Fatalf("loose parse failed: %v %v", k, ok)
	}
	var k Kind
	if err := k.UnmarshalText([]byte("wizard")); err == nil {
		t.Fatalf("unknown kind should fail")
	}
	if _, err := Kind(200).MarshalText(); err == nil {
		t.Fatalf("invalid kind should fail")
	}
}

func TestValueArithmeticSaturates(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{1, 2, 3},
		{0, 0, 0},
		{math.MaxInt64 - 1, 1, math.MaxInt64},
		{math.MaxInt64, 1, math.MaxInt64},
		{1 << 62, 1 << 62, math.MaxInt64},
	}
	for _, c := range cases {
		if got := AddValue(c.a, c.b); got != c.want {
			t.Errorf("AddValue(%d,%d)=%d want %d", c.a, c.b, got, c.want)
		}
	}
	if DoubleValue(3) != 6 || DoubleValue(1<<62) != math.MaxInt64 {
		t.Fatalf("DoubleValue should saturate")
	}
}

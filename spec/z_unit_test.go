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

package spec

import (
	"errors"
	"testing"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/sampler"
	"github.com/zintix-labs/moneycart/sdk/symbol"
)

const minimalYAML = `
game_name: cart_test
game_id: 9
symbol_weights:
  base:
    - {kind: coin, weight: 10}
    - {kind: payer, weight: 1}
  deep:
    - {kind: coin, weight: 5}
    - {kind: p_collector, weight: 5}
`

func TestYAMLDefaults(t *testing.T) {
	bs, err := GetBonusSettingByYAML([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bs.Grid.Cols != 6 || bs.Grid.MaxRows != 8 || bs.Grid.StartRows != 4 {
		t.Fatalf("grid defaults wrong: %+v", bs.Grid)
	}
	if bs.Respin.Base != 3 || bs.Respin.BaseMax != 5 || bs.Cap != 15000 || bs.BigWin != 100 {
		t.Fatalf("round defaults wrong: %+v cap=%d", bs.Respin, bs.Cap)
	}
	if bs.SpawnNormal.Total() != 9 || bs.SpawnTurbo.Total() != 8 {
		t.Fatalf("spawn tables wrong: %d %d", bs.SpawnNormal.Total(), bs.SpawnTurbo.Total())
	}
	if bs.KindTable(5) != bs.BaseKinds || bs.KindTable(6) != bs.DeepKinds {
		t.Fatalf("depth selection wrong")
	}
	if bs.DeepKinds.Weight(symbol.PCollector) != 5 {
		t.Fatalf("deep table not decoded")
	}
}

func TestYAMLRejectsUnknownField(t *testing.T) {
	_, err := GetBonusSettingByYAML([]byte("game_name: x\nreel_strips: [1]\n"))
	if err == nil || errs.LevelOf(err) != errs.Fatal {
		t.Fatalf("unknown field should be fatal, got %v", err)
	}
}

func TestAllZeroWeightsFatal(t *testing.T) {
	raw := `
game_name: zero
spawn_count:
  normal: [0, 0, 0]
`
	_, err := GetBonusSettingByYAML([]byte(raw))
	if !errors.Is(err, sampler.ErrZeroWeights) {
		t.Fatalf("expected zero weight error, got %v", err)
	}
	if errs.LevelOf(err) != errs.Fatal {
		t.Fatalf("config errors must be fatal, got %s", errs.ErrLv(errs.LevelOf(err)))
	}
}

func TestValidRejects(t *testing.T) {
	cases := map[string]string{
		"no name":     "cap: 10\n",
		"bad grid":    "game_name: g\ngrid: {cols: 6, max_rows: 4, start_rows: 5}\n",
		"bad respin":  "game_name: g\nrespin: {base: 4, base_max: 3}\n",
		"bad ratio":   "game_name: g\nmutate_chance: {num: 3, den: 2}\n",
		"bad range":   "game_name: g\nnecro_targets: {min: 2, max: 1}\n",
		"bad logic":   "game_name: g\nlogic_key: lines\n",
		"coin mutate": "game_name: g\narms_dealer_kinds: [coin]\n",
		"dup kind":    "game_name: g\nsymbol_weights:\n  base:\n    - {kind: coin, weight: 1}\n    - {kind: coin, weight: 2}\n",
		"bad kind":    "game_name: g\narms_dealer_kinds: [dragon]\n",
	}
	for name, raw := range cases {
		if _, err := GetBonusSettingByYAML([]byte(raw)); err == nil {
			t.Errorf("[%s] expected error", name)
		}
	}
}

func TestExplicitZeroScalarsKept(t *testing.T) {
	bs, err := GetBonusSettingByYAML([]byte("game_name: z\nbig_win: 0\ndeep_above_rows: 0\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bs.BigWin != 0 || bs.DeepAbove != 0 || bs.Cap != 15000 {
		t.Fatalf("explicit zero overwritten: big_win=%d deep=%d cap=%d", bs.BigWin, bs.DeepAbove, bs.Cap)
	}
	if !bs.IsDeep(4) {
		t.Fatalf("deep_above_rows 0 should always use the deep table")
	}
	js, err := GetBonusSettingByJSON([]byte(`{"game_name":"z","big_win":0}`))
	if err != nil || js.BigWin != 0 || js.DeepAbove != 5 {
		t.Fatalf("json explicit zero: %+v %v", js, err)
	}
	if _, err := GetBonusSettingByYAML([]byte("game_name: z\ncap: 0\n")); err == nil || errs.LevelOf(err) != errs.Fatal {
		t.Fatalf("cap 0 must be rejected, got %v", err)
	}
}

func TestJSONSetting(t *testing.T) {
	raw := `{"game_name":"cart_json","game_id":3,"cap":500,"arms_dealer_kinds":["payer"],
"symbol_weights":{"base":[{"kind":"coin","weight":1}],"deep":[{"kind":"sniper","weight":1}]}}`
	bs, err := GetBonusSettingByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if bs.Cap != 500 || len(bs.MutateKinds) != 1 || bs.MutateKinds[0] != symbol.Payer {
		t.Fatalf("json values lost: cap=%d kinds=%v", bs.Cap, bs.MutateKinds)
	}
}

func TestDefaultSetting(t *testing.T) {
	bs := Default("cart", 1)
	if bs.BaseKinds.Weight(symbol.ResetPlus) != 0 || bs.DeepKinds.Weight(symbol.ResetPlus) != 0 {
		t.Fatalf("reset_plus must not spawn by default")
	}
	if bs.IsDeep(5) || !bs.IsDeep(6) {
		t.Fatalf("rows <= 5 should use base table")
	}
}

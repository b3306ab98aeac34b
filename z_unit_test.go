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

package moneycart

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/moneycart/catalog"
	"github.com/zintix-labs/moneycart/configs"
	"github.com/zintix-labs/moneycart/corefmt"
	"github.com/zintix-labs/moneycart/dto"
	"github.com/zintix-labs/moneycart/sdk/bonus"
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

func newLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	return lab
}

func newMachine(t *testing.T, lab *Lab, seed int64) *Machine {
	t.Helper()
	m, err := lab.NewMachineWithSeed(1, seed)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	return m
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(nil, Configs(configs.FS)); !errors.Is(err, ErrNoFactory) {
		t.Fatalf("expected ErrNoFactory, got %v", err)
	}
	if _, err := New(core.Default(), nil); !errors.Is(err, ErrNoConfigs) {
		t.Fatalf("expected ErrNoConfigs, got %v", err)
	}
	lab, err := New(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := lab.NewMachineWithSeed(1, 1); !errors.Is(err, ErrNotFrozen) {
		t.Fatalf("machine before freeze should fail, got %v", err)
	}
}

func TestLabSummary(t *testing.T) {
	lab := newLab(t)
	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 2 || sum[0].GID != 1 || sum[1].GID != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum[0].Cap != 15000 || sum[0].Cols != 6 || sum[0].MaxRows != 8 {
		t.Fatalf("summary values wrong: %+v", sum[0])
	}
	if _, err := lab.NewMachineWithSeed(99, 1); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown gid should be not found, got %v", err)
	}
}

// 內建變體只能調整圖標種類權重，其餘規則與預設一致
func TestEmbeddedVariantsKeepFixedRules(t *testing.T) {
	lab := newLab(t)
	def := spec.Default("default", 0)
	for _, id := range lab.IDs() {
		bs, err := lab.Setting(id)
		if err != nil {
			t.Fatalf("setting %d: %v", id, err)
		}
		if !reflect.DeepEqual(bs.SpawnCount, def.SpawnCount) || !reflect.DeepEqual(bs.CoinValues, def.CoinValues) {
			t.Errorf("gid %d: spawn or coin tables changed: %+v %v", id, bs.SpawnCount, bs.CoinValues)
		}
		if bs.Grid != def.Grid || bs.Respin != def.Respin || bs.Cap != def.Cap || bs.BigWin != def.BigWin || bs.DeepAbove != def.DeepAbove {
			t.Errorf("gid %d: round rules changed", id)
		}
		if bs.BaseKinds.Weight(symbol.ResetPlus) != 0 || bs.DeepKinds.Weight(symbol.ResetPlus) != 0 {
			t.Errorf("gid %d: reset_plus must keep zero weight", id)
		}
		if bs.ReplacementsFireSameSpin {
			t.Errorf("gid %d: replacements must wait for the next spin", id)
		}
	}
}

func TestMachineDeterministic(t *testing.T) {
	lab := newLab(t)
	a, b := newMachine(t, lab, 42), newMachine(t, lab, 42)
	for range 20 {
		sa, err := a.PlayRound()
		if err != nil {
			t.Fatalf("round a: %v", err)
		}
		sb, err := b.PlayRound()
		if err != nil {
			t.Fatalf("round b: %v", err)
		}
		if sa != sb {
			t.Fatalf("same seed diverged:\n%+v\n%+v", sa, sb)
		}
		if !reflect.DeepEqual(a.Events(), b.Events()) {
			t.Fatalf("event logs diverged")
		}
	}
}

func TestMachineSpinDTO(t *testing.T) {
	lab := newLab(t)
	m := newMachine(t, lab, 7)
	m.SetCoinValue(decimal.RequireFromString("0.5"))

	if _, err := m.Spin(); !errors.Is(err, bonus.ErrNoRound) {
		t.Fatalf("spin before start should fail with ErrNoRound, got %v", err)
	}
	if _, err := m.StartBonus(); err != nil {
		t.Fatalf("start: %v", err)
	}
	var last dto.SpinResult
	for i := 0; ; i++ {
		res, err := m.Spin()
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		if res.Spin != i+1 || res.GameID != 1 {
			t.Fatalf("spin index/gid wrong: %d %d", res.Spin, res.GameID)
		}
		if res.State.TotalValue > res.State.Cap {
			t.Fatalf("total exceeds cap: %d", res.State.TotalValue)
		}
		if res.Core.StartB64U == "" || res.Core.AfterB64U == "" {
			t.Fatalf("core snapshots missing")
		}
		if i > 0 && res.Core.StartB64U != last.Core.AfterB64U {
			t.Fatalf("core chain broken at spin %d", i)
		}
		last = res
		if res.IsEnd {
			break
		}
		if res.Payout != nil {
			t.Fatalf("payout before end")
		}
	}
	if last.Payout == nil || last.PayoutAmount == nil {
		t.Fatalf("payout missing on end")
	}
	want := decimal.NewFromInt(*last.Payout).Mul(decimal.RequireFromString("0.5"))
	if !last.PayoutAmount.Equal(want) {
		t.Fatalf("amount %s, want %s", last.PayoutAmount, want)
	}
	if _, err := m.Spin(); !errors.Is(err, bonus.ErrRoundEnded) {
		t.Fatalf("spin after end should fail, got %v", err)
	}
}

func TestSaveLoadCoreReplaysRound(t *testing.T) {
	lab := newLab(t)
	m := newMachine(t, lab, 11)
	var blob bytes.Buffer
	if err := m.SaveCore(&blob); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := m.PlayRound()
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	evs := m.Events()
	if err := m.LoadCore(&blob); err != nil {
		t.Fatalf("load: %v", err)
	}
	again, err := m.PlayRound()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if first != again || !reflect.DeepEqual(evs, m.Events()) {
		t.Fatalf("replay diverged")
	}
}

func TestStartBonusWithSnapshot(t *testing.T) {
	lab := newLab(t)
	m := newMachine(t, lab, 3)
	snap, err := m.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	place := []bonus.Placement{{Cell: symbol.CellRef{Row: 4, Col: 0}, Kind: symbol.Coin, Value: 5}}
	if _, err := m.StartBonusWith(place, snap); err != nil {
		t.Fatalf("start: %v", err)
	}
	r1, err := m.Spin()
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if _, err := m.StartBonusWith(place, snap); err != nil {
		t.Fatalf("restart: %v", err)
	}
	r2, err := m.Spin()
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if r1.Core.StartB64U != corefmt.EncodeBase64URL(snap) || !reflect.DeepEqual(r1.Events, r2.Events) {
		t.Fatalf("same snapshot and placements should replay the same spin")
	}

	bad := []bonus.Placement{{Cell: symbol.CellRef{Row: 0, Col: 0}, Kind: symbol.Coin, Value: 1}}
	if _, err := m.StartBonusWith(bad, nil); !errors.Is(err, bonus.ErrPlacement) {
		t.Fatalf("placement outside window should fail, got %v", err)
	}
	if m.State().Phase != buf.PhaseNoRound {
		t.Fatalf("failed start should leave no round")
	}
}

func TestExternalConfigMustMatchCatalog(t *testing.T) {
	lab := newLab(t)
	if _, err := lab.NewMachineByYAML([]byte("game_name: moneycart\ngame_id: 1\n"), 1); err != nil {
		t.Fatalf("matching yaml should build: %v", err)
	}
	if _, err := lab.NewMachineByYAML([]byte("game_name: moneycart\ngame_id: 2\n"), 1); err == nil {
		t.Fatalf("mismatched id/name should fail")
	}
	if _, err := lab.NewMachineByJSON([]byte(`{"game_name":"nope","game_id":1}`), 1); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown name should be not found, got %v", err)
	}
}

func TestAutoplay(t *testing.T) {
	lab := newLab(t)
	m := newMachine(t, lab, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.StartBonus(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := Autoplay(ctx, m, 0, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx should stop before spinning, got %v", err)
	}
	if m.State().SpinIndex != 0 {
		t.Fatalf("no spin expected after cancel")
	}

	n := 0
	last, err := Autoplay(context.Background(), m, 0, func(dto.SpinResult) bool { n++; return true })
	if err != nil {
		t.Fatalf("autoplay: %v", err)
	}
	if !last.IsEnd || n != last.Spin {
		t.Fatalf("autoplay should run to the end: end=%v n=%d spin=%d", last.IsEnd, n, last.Spin)
	}

	if _, err := m.StartBonus(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	last, err = Autoplay(context.Background(), m, time.Millisecond, func(dto.SpinResult) bool { return false })
	if err != nil || last.Spin != 1 {
		t.Fatalf("callback false should stop after one spin: %v %d", err, last.Spin)
	}
}

func TestSimulator(t *testing.T) {
	lab := newLab(t)
	ctx := context.Background()

	sim, err := lab.NewSimulatorWithSeed(1, 99)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, _, err := sim.Sim(ctx, 300, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if st.Summary.Rounds != 300 || st.Summary.AvgSpins < 3 {
		t.Fatalf("unexpected summary: %+v", st.Summary)
	}
	if st.Summary.TotalPayout > int64(st.Summary.Rounds)*st.Summary.Cap {
		t.Fatalf("payout exceeds cap bound")
	}

	mp1, _, err := sim.SimMP(ctx, 50, 4, false)
	if err != nil {
		t.Fatalf("simmp: %v", err)
	}
	sim2, _ := lab.NewSimulatorWithSeed(1, 99)
	mp2, _, err := sim2.SimMP(ctx, 50, 4, false)
	if err != nil {
		t.Fatalf("simmp: %v", err)
	}
	if mp1.Summary.Rounds != 200 || mp1.Summary.TotalPayout != mp2.Summary.TotalPayout {
		t.Fatalf("seeded SimMP should be reproducible: %d vs %d", mp1.Summary.TotalPayout, mp2.Summary.TotalPayout)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := sim.Sim(canceled, 10, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled sim should fail, got %v", err)
	}
	if _, _, err := sim.SimMP(ctx, 0, 2, false); err == nil {
		t.Fatalf("zero rounds should fail")
	}
}

func TestSessions(t *testing.T) {
	lab := newLab(t)
	ctx := context.Background()
	rt, err := lab.BuildSessions(2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	seed := int64(1)
	s1, err := rt.Create(ctx, 1, &seed, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s1.Machine.Seed() != 1 {
		t.Fatalf("seed not applied")
	}
	if _, err := rt.Create(ctx, 2, nil, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if _, err := rt.Create(ctx, 1, nil, decimal.NewFromInt(1)); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected full, got %v", err)
	}
	got, err := rt.Get(ctx, s1.ID)
	if err != nil || got != s1 {
		t.Fatalf("get: %v", err)
	}
	if _, err := rt.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("bad id should be not found, got %v", err)
	}
	if err := rt.Delete(s1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := rt.Delete(s1.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double delete should be not found, got %v", err)
	}

	rt.now = func() time.Time { return time.Now().Add(time.Hour) }
	if n := rt.Sweep(time.Minute); n != 1 || rt.Len() != 0 {
		t.Fatalf("sweep removed %d, left %d", n, rt.Len())
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("close state wrong")
	}
	if _, err := rt.Create(ctx, 1, nil, decimal.NewFromInt(1)); !errors.Is(err, ErrRuntimeClosed) {
		t.Fatalf("closed runtime should reject, got %v", err)
	}
}

func TestSeedMakerUnique(t *testing.T) {
	sm := newSeedMaker(1)
	seen := make(map[int64]bool)
	for range 1000 {
		v := sm.next()
		if v < 0 || seen[v] {
			t.Fatalf("seed repeated or negative: %d", v)
		}
		seen[v] = true
	}
}

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

package bonus

import (
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

// effectFn 單一圖標的結算：讀取「當下」盤面、修改盤面並寫入事件。
// depth > 0 表示由 Necromancer 復活觸發。
type effectFn func(e *Engine, s *symbol.Symbol, depth int)

// effects 以 Kind 為 key 的分派表；Coin 沒有效果。
// 在 init 中建立，避免 revive -> resolve -> effects 的初始化循環。
var effects map[symbol.Kind]effectFn

func init() {
	effects = map[symbol.Kind]effectFn{
		symbol.Collector:   collect,
		symbol.PCollector:  collect,
		symbol.Payer:       pay,
		symbol.PPayer:      pay,
		symbol.ComboCP:     combo,
		symbol.PComboCP:    combo,
		symbol.Sniper:      snipe,
		symbol.PSniper:     snipe,
		symbol.Necromancer: revive,
		symbol.Unlocker:    unlocker,
		symbol.ArmsDealer:  armsDealer,
		symbol.PArmsDealer: armsDealer,
		symbol.Upgrader:    upgrade,
		symbol.ResetPlus:   resetPlus,
	}
}

func (e *Engine) resolve(s *symbol.Symbol, depth int) {
	if fn, ok := effects[s.Kind]; ok {
		fn(e, s, depth)
	}
}

func sourceEvent(typ buf.EventType, s *symbol.Symbol, depth int) buf.EffectEvent {
	cell := s.Cell
	return buf.EffectEvent{Type: typ, Kind: s.Kind, Source: &cell, Depth: depth}
}

func targetOf(s *symbol.Symbol, before int64) buf.Target {
	return buf.Target{Cell: s.Cell, Kind: s.Kind, Before: before, After: s.Value}
}

// collect self += 其他所有圖標的值總和；其他圖標不變。
func collect(e *Engine, s *symbol.Symbol, depth int) {
	var gain int64
	for _, o := range e.others(s) {
		gain = symbol.AddValue(gain, o.Value)
	}
	before := s.Value
	s.Value = symbol.AddValue(s.Value, gain)
	ev := sourceEvent(buf.EventCollect, s, depth)
	ev.Targets = []buf.Target{targetOf(s, before)}
	ev.Value = gain
	e.emit(ev)
}

// pay 其他每個圖標 += self.Value；self 不變。
func pay(e *Engine, s *symbol.Symbol, depth int) {
	v := s.Value
	others := e.others(s)
	ev := sourceEvent(buf.EventPay, s, depth)
	ev.Value = v
	ev.Targets = make([]buf.Target, 0, len(others))
	for _, o := range others {
		before := o.Value
		o.Value = symbol.AddValue(o.Value, v)
		ev.Targets = append(ev.Targets, targetOf(o, before))
	}
	e.emit(ev)
}

// combo 先收集，再以收集後的值廣播。
func combo(e *Engine, s *symbol.Symbol, depth int) {
	collect(e, s, depth)
	pay(e, s, depth)
}

// snipe 從值 > 0 的其他圖標中不重複抽若干個，各自加倍。
// 發數依 Sniper 自身是否常駐而定（被復活時亦同）。
func snipe(e *Engine, s *symbol.Symbol, depth int) {
	var cands []*symbol.Symbol
	for _, o := range e.others(s) {
		if o.Value > 0 {
			cands = append(cands, o)
		}
	}
	ev := sourceEvent(buf.EventSnipe, s, depth)
	if len(cands) > 0 {
		r := e.set.SniperShots.Transient
		if s.Persistent() {
			r = e.set.SniperShots.Persistent
		}
		shots := e.core.Between(r.Min, r.Max)
		for _, i := range e.core.Sample(len(cands), shots) {
			t := cands[i]
			before := t.Value
			t.Value = symbol.DoubleValue(t.Value)
			ev.Targets = append(ev.Targets, targetOf(t, before))
			ev.Value = symbol.AddValue(ev.Value, t.Value-before)
		}
	}
	e.emit(ev)
}

// revive 從 Collector/Payer/ComboCP/Sniper 家族中不重複抽 1~2 個，原地重新結算。
func revive(e *Engine, s *symbol.Symbol, depth int) {
	var cands []*symbol.Symbol
	for _, o := range e.others(s) {
		if o.Kind.Revivable() {
			cands = append(cands, o)
		}
	}
	ev := sourceEvent(buf.EventRevive, s, depth)
	if len(cands) == 0 {
		e.emit(ev)
		return
	}
	n := e.core.Between(e.set.NecroTarget.Min, e.set.NecroTarget.Max)
	picked := e.core.Sample(len(cands), n)
	ev.Targets = make([]buf.Target, 0, len(picked))
	for _, i := range picked {
		t := cands[i]
		ev.Targets = append(ev.Targets, buf.Target{Cell: t.Cell, Kind: t.Kind, Before: t.Value, After: t.Value})
	}
	ev.Value = int64(len(picked))
	e.emit(ev)
	for _, i := range picked {
		if t := cands[i]; e.onBoard(t) {
			e.resolve(t, depth+1)
		}
	}
}

// unlocker 純表演，不影響盤面。
func unlocker(e *Engine, s *symbol.Symbol, depth int) {
	e.emit(sourceEvent(buf.EventUnlocker, s, depth))
}

// armsDealer 依機率把一枚 Coin 原地換成新圖標；新圖標本次不結算。
func armsDealer(e *Engine, s *symbol.Symbol, depth int) {
	var coins []*symbol.Symbol
	for _, o := range e.others(s) {
		if o.Kind == symbol.Coin {
			coins = append(coins, o)
		}
	}
	ev := sourceEvent(buf.EventMutate, s, depth)
	if len(coins) == 0 || !chance(e, e.set.Mutate) {
		e.emit(ev)
		return
	}
	old := coins[e.core.IntN(len(coins))]
	kind := e.set.MutateKinds[e.core.IntN(len(e.set.MutateKinds))]
	repl := e.newSymbol(kind)
	e.replace(old, repl)
	ev.Targets = []buf.Target{{Cell: repl.Cell, Kind: repl.Kind, Before: old.Value, After: repl.Value}}
	ev.Value = repl.Value - old.Value
	e.emit(ev)
	e.emitSpawn(repl)
}

// upgrade 依機率把一個可升級圖標換成常駐版本，保留值；新圖標本次不結算。
// 已是常駐的目標不替換，只記錄事件。
func upgrade(e *Engine, s *symbol.Symbol, depth int) {
	var cands []*symbol.Symbol
	for _, o := range e.others(s) {
		if o.Kind.Upgradable() {
			cands = append(cands, o)
		}
	}
	ev := sourceEvent(buf.EventUpgrade, s, depth)
	if len(cands) == 0 || !chance(e, e.set.Upgrade) {
		e.emit(ev)
		return
	}
	old := cands[e.core.IntN(len(cands))]
	if old.Persistent() {
		ev.Targets = []buf.Target{targetOf(old, old.Value)}
		e.emit(ev)
		return
	}
	p, _ := old.Kind.Counterpart()
	repl := e.newSymbolWithValue(p, old.Value)
	e.replace(old, repl)
	ev.Targets = []buf.Target{targetOf(repl, old.Value)}
	e.emit(ev)
	e.emitSpawn(repl)
}

// resetPlus respinBase+1（上限 base_max），並立即把 respins 設為 respinBase。
func resetPlus(e *Engine, s *symbol.Symbol, depth int) {
	e.respinBase = min(e.respinBase+1, e.set.Respin.BaseMax)
	e.respins = e.respinBase
	ev := sourceEvent(buf.EventResetPlus, s, depth)
	ev.Value = int64(e.respinBase)
	e.emit(ev)
}

func (e *Engine) replace(old, repl *symbol.Symbol) {
	repl.Dormant = true
	if _, err := e.grid.Replace(old.Cell, repl); err != nil {
		// old 取自目前盤面，理論上不可達
		panic(err)
	}
}

func chance(e *Engine, r spec.Ratio) bool {
	return e.core.Chance(r.Num, r.Den)
}

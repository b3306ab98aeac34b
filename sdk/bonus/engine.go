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

// Package bonus 實作 Money Cart 回合控制器。
//
// 一次 Spin 是一個完整的交易，依序經過：
//
//	Idle → Spawning → ResolvingTransient → ResolvingPersistent → CheckingUnlock → CheckingTermination → (Idle | Ended)
//
// 所有隨機決策都來自注入的 core.Core，所有盤面變化都寫成 buf.EffectEvent。
// Engine 是單執行緒、同步的：結算途中（例如 observer 回呼內）再次呼叫 Spin 會得到 ErrBusy，不會交錯執行。
// 多個 goroutine 共用同一個 Engine 時需由呼叫端加鎖（見根套件的 Machine）。
package bonus

import (
	"slices"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/sdk/grid"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

var (
	ErrNoRound    = errs.NewWarn("bonus: no round started")
	ErrBusy       = errs.NewWarn("bonus: spin already resolving")
	ErrRoundEnded = errs.NewWarn("bonus: round already ended")
	ErrPlacement  = errs.NewWarn("bonus: invalid start placement")
	ErrSetting    = errs.NewFatal("bonus: setting not initialized")
)

// Observer 每寫入一筆事件就同步呼叫一次（生成掛鉤、即時轉播）。回呼內不可修改引擎。
type Observer func(ev buf.EffectEvent)

// Placement 指定開局盤面上的一個圖標（觸發 bonus 的錢幣等）。
type Placement struct {
	Cell  symbol.CellRef
	Kind  symbol.Kind
	Value int64
}

// Engine 回合控制器。
type Engine struct {
	set  *spec.BonusSetting
	core *core.Core
	grid *grid.Grid
	log  *buf.EventLog

	phase           buf.Phase
	respins         int
	respinBase      int
	fullRowsAwarded int
	next            grid.Direction
	turbo           bool // 下一轉起生效
	spinTurbo       bool // 本轉鎖定值
	depth           buf.DepthMode
	spinIndex       int
	bigWin          bool
	total           int64 // 回報值（觸頂時為 cap）
	payout          int64
	nextID          int
	lastSpawned     []*symbol.Symbol
	observer        Observer
}

// New 以初始化完成的設定與亂數核心建立引擎，初始階段為 NoRound。
func New(set *spec.BonusSetting, c *core.Core) (*Engine, error) {
	if set == nil || c == nil || set.SpawnNormal == nil || set.SpawnTurbo == nil || set.BaseKinds == nil || set.DeepKinds == nil {
		return nil, ErrSetting
	}
	g, err := grid.New(set.Grid.Cols, set.Grid.MaxRows, set.Grid.StartRows)
	if err != nil {
		return nil, errs.Wrap(err, "bonus: grid")
	}
	return &Engine{
		set:         set,
		core:        c,
		grid:        g,
		log:         buf.NewEventLog(),
		phase:       buf.PhaseNoRound,
		lastSpawned: make([]*symbol.Symbol, 0, 4),
	}, nil
}

func (e *Engine) Setting() *spec.BonusSetting { return e.set }
func (e *Engine) Core() *core.Core            { return e.core }
func (e *Engine) Phase() buf.Phase            { return e.phase }
func (e *Engine) Turbo() bool                 { return e.turbo }

// SetObserver 設定事件回呼；傳 nil 取消。
func (e *Engine) SetObserver(fn Observer) { e.observer = fn }

// SetTurbo 切換 turbo；在下一次 Spin 開始時才鎖定生效，不影響進行中的結算。
func (e *Engine) SetTurbo(on bool) { e.turbo = on }

// StartBonus 重置盤面並開始新回合（空盤）。
func (e *Engine) StartBonus() (buf.RoundState, error) {
	return e.StartBonusWith(nil)
}

// StartBonusWith 重置並以指定圖標開局。值須在 [0, cap] 內；放置失敗時回到 NoRound。
func (e *Engine) StartBonusWith(placements []Placement) (buf.RoundState, error) {
	if e.phase.Resolving() {
		return e.State(), errs.Sentinelf(ErrBusy, "start during %s", e.phase)
	}
	e.reset()
	e.phase = buf.PhaseIdle
	for i, p := range placements {
		if !p.Kind.Valid() || p.Value < 0 || p.Value > e.set.Cap {
			e.abandon()
			return e.State(), errs.Sentinelf(ErrPlacement, "placement[%d] kind=%s value=%d", i, p.Kind, p.Value)
		}
		s := e.newSymbolWithValue(p.Kind, p.Value)
		if err := e.grid.Place(p.Cell, s); err != nil {
			e.abandon()
			return e.State(), errs.Sentinelf(ErrPlacement, "placement[%d]: %v", i, err)
		}
		e.emitSpawn(s)
	}
	e.total = min(e.grid.SumActive(), e.set.Cap)
	return e.State(), nil
}

// ResetBoard 放棄目前回合，不計派彩。
func (e *Engine) ResetBoard() error {
	if e.phase.Resolving() {
		return errs.Sentinelf(ErrBusy, "reset during %s", e.phase)
	}
	e.abandon()
	return nil
}

// Abort 無條件放棄回合並回到 NoRound（結算途中發生不可恢復錯誤時使用）。
func (e *Engine) Abort() {
	e.abandon()
}

func (e *Engine) reset() {
	e.grid.Reset(e.set.Grid.StartRows)
	e.log.Reset()
	e.respinBase = e.set.Respin.Base
	e.respins = e.respinBase
	e.fullRowsAwarded = 0
	e.next = grid.Top
	e.spinIndex = 0
	e.bigWin = false
	e.total = 0
	e.payout = 0
	e.nextID = 0
	e.lastSpawned = e.lastSpawned[:0]
	e.depth = e.depthFor(e.grid.Rows())
}

func (e *Engine) abandon() {
	e.reset()
	e.respins = 0
	e.phase = buf.PhaseNoRound
}

// Spin 推進一轉。
//
// 前置條件：必須處於 Idle。NoRound、Ended 與結算中分別回傳 ErrNoRound、ErrRoundEnded、ErrBusy。
func (e *Engine) Spin() (buf.SpinResult, error) {
	switch {
	case e.phase == buf.PhaseNoRound:
		return buf.SpinResult{State: e.State()}, ErrNoRound
	case e.phase == buf.PhaseEnded:
		return buf.SpinResult{State: e.State()}, ErrRoundEnded
	case e.phase.Resolving():
		return buf.SpinResult{State: e.State()}, errs.Sentinelf(ErrBusy, "phase=%s", e.phase)
	}

	start := e.log.Len()
	e.spinIndex++
	e.spinTurbo = e.turbo
	e.depth = e.depthFor(e.grid.Rows())
	e.wake()

	e.phase = buf.PhaseSpawning
	e.spawn()
	e.updateRespins()

	e.phase = buf.PhaseResolvingTransient
	e.resolveTransient()

	e.phase = buf.PhaseResolvingPersistent
	e.resolvePersistent()

	e.phase = buf.PhaseCheckingUnlock
	e.checkUnlock()

	e.phase = buf.PhaseCheckingTermination
	ended := e.checkTermination()

	if ended {
		e.phase = buf.PhaseEnded
	} else {
		e.phase = buf.PhaseIdle
	}

	res := buf.SpinResult{
		Events: e.log.Since(start),
		State:  e.State(),
		Ended:  ended,
		Board:  e.grid.Snapshot(),
	}
	if ended {
		p := e.payout
		res.Payout = &p
	}
	return res, nil
}

func (e *Engine) depthFor(rows int) buf.DepthMode {
	if e.set.IsDeep(rows) {
		return buf.DepthDeep
	}
	return buf.DepthBase
}

// wake 清除上一轉替代圖標的 Dormant 標記
func (e *Engine) wake() {
	for _, s := range e.grid.ActiveSymbols() {
		s.Dormant = false
	}
}

// 1. Spawning
func (e *Engine) spawn() {
	e.lastSpawned = e.lastSpawned[:0]
	n := e.set.SpawnTable(e.spinTurbo).Pick(e.core)
	empty := e.grid.EmptyActiveCells()
	kinds := e.set.BaseKinds
	if e.depth == buf.DepthDeep {
		kinds = e.set.DeepKinds
	}
	for _, i := range e.core.Sample(len(empty), n) {
		s := e.newSymbol(kinds.Pick(e.core))
		if err := e.grid.Place(empty[i], s); err != nil {
			// empty 來自同一個 window，理論上不可達
			panic(err)
		}
		e.lastSpawned = append(e.lastSpawned, s)
		e.emitSpawn(s)
	}
}

// 2. Respin update
func (e *Engine) updateRespins() {
	if len(e.lastSpawned) > 0 {
		e.respins = e.respinBase
	} else {
		e.respins--
	}
	e.emit(buf.EffectEvent{Type: buf.EventRespin, Value: int64(e.respins)})
}

// 3. 只結算本轉生成的圖標，依 TransientOrder，同種類依生成順序。
func (e *Engine) resolveTransient() {
	order := slices.Clone(e.lastSpawned)
	slices.SortStableFunc(order, func(a, b *symbol.Symbol) int {
		return a.Kind.TransientRank() - b.Kind.TransientRank()
	})
	for _, s := range order {
		if s.Persistent() || !e.onBoard(s) {
			continue
		}
		e.resolve(s, 0)
	}
}

// 4. 所有常駐圖標，依 PersistentOrder，同種類 row-major。
func (e *Engine) resolvePersistent() {
	var order []*symbol.Symbol
	for _, s := range e.grid.ActiveSymbols() {
		if !s.Persistent() {
			continue
		}
		if s.Dormant && !e.set.ReplacementsFireSameSpin {
			continue
		}
		order = append(order, s)
	}
	slices.SortStableFunc(order, func(a, b *symbol.Symbol) int {
		return a.Kind.PersistentRank() - b.Kind.PersistentRank()
	})
	for _, s := range order {
		if !e.onBoard(s) {
			continue
		}
		e.resolve(s, 0)
	}
}

// 5. 滿列數超過已發放數且未達最大列數時開一列；同轉多列變滿也只開一列。
func (e *Engine) checkUnlock() {
	full := len(e.grid.FullActiveRows())
	if full <= e.fullRowsAwarded || e.grid.Rows() >= e.grid.MaxRows() {
		return
	}
	used, ok := e.grid.Expand(e.next)
	if !ok {
		return
	}
	e.next = e.next.Flip()
	e.fullRowsAwarded = full
	e.emit(buf.EffectEvent{Type: buf.EventRowUnlock, Dir: used, Value: int64(e.grid.Rows())})
}

// 6. 觸頂優先；未觸頂才看大獎提示與重轉耗盡。
func (e *Engine) checkTermination() bool {
	sum := e.grid.SumActive()
	if sum >= e.set.Cap {
		e.total = e.set.Cap
		e.payout = e.set.Cap * e.set.BaseBet
		e.emit(buf.EffectEvent{Type: buf.EventCap, Value: e.set.Cap})
		e.emit(buf.EffectEvent{Type: buf.EventRoundEnd, Value: e.payout})
		return true
	}
	e.total = sum
	if sum >= e.set.BigWin && !e.bigWin {
		e.bigWin = true
		e.emit(buf.EffectEvent{Type: buf.EventBigWin, Value: sum})
	}
	if e.respins <= 0 {
		e.payout = sum * e.set.BaseBet
		e.emit(buf.EffectEvent{Type: buf.EventRoundEnd, Value: e.payout})
		return true
	}
	return false
}

func (e *Engine) onBoard(s *symbol.Symbol) bool {
	return e.grid.At(s.Cell) == s
}

// others window 內除了 self 以外的圖標，row-major
func (e *Engine) others(self *symbol.Symbol) []*symbol.Symbol {
	act := e.grid.ActiveSymbols()
	out := act[:0]
	for _, s := range act {
		if s != self {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) newSymbol(kind symbol.Kind) *symbol.Symbol {
	var v int64
	if kind.HasValue() && len(e.set.CoinValues) > 0 {
		v = e.set.CoinValues[e.core.IntN(len(e.set.CoinValues))]
	}
	return e.newSymbolWithValue(kind, v)
}

func (e *Engine) newSymbolWithValue(kind symbol.Kind, v int64) *symbol.Symbol {
	e.nextID++
	s := symbol.New(kind, v)
	s.ID = e.nextID
	return s
}

func (e *Engine) emitSpawn(s *symbol.Symbol) {
	cell := s.Cell
	e.emit(buf.EffectEvent{Type: buf.EventSpawn, Kind: s.Kind, Source: &cell, Value: s.Value})
}

func (e *Engine) emit(ev buf.EffectEvent) {
	ev.Spin = e.spinIndex
	ev.Phase = e.phase
	ev.Seq = e.log.Append(ev)
	if e.observer != nil {
		e.observer(ev)
	}
}

// State 回傳目前回合狀態的值快照。
func (e *Engine) State() buf.RoundState {
	return buf.RoundState{
		Respins:         e.respins,
		RespinBase:      e.respinBase,
		Rows:            e.grid.Rows(),
		Top:             e.grid.Top(),
		Bottom:          e.grid.Bottom(),
		FullRowsAwarded: e.fullRowsAwarded,
		NextUnlock:      e.next,
		DepthMode:       e.depthFor(e.grid.Rows()),
		Phase:           e.phase,
		TotalValue:      e.total,
		Cap:             e.set.Cap,
		SpinIndex:       e.spinIndex,
		Turbo:           e.turbo,
		BigWin:          e.bigWin,
		Ended:           e.phase == buf.PhaseEnded,
		Payout:          e.payout,
	}
}

// Board 目前 window 內圖標的值複本（row-major）。
func (e *Engine) Board() []symbol.Symbol { return e.grid.Snapshot() }

// Events 本回合至今所有事件的複本。
func (e *Engine) Events() []buf.EffectEvent { return e.log.Since(0) }

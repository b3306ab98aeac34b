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
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/moneycart/corefmt"
	"github.com/zintix-labs/moneycart/dto"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/bonus"
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

// maxCoreBlob Core 快照 frame 的上限（不可信輸入）。
const maxCoreBlob = 1 << 10

var ErrMachinePanic = errs.NewFatal("machine panic")

// Machine 封裝一台「可對外提供 Spin」的 bonus 機台。
//
// 你可以把 Machine 視為 bonus.Engine 的「外殼（shell）」：
//   - 對外：提供 StartBonus / Spin 入口（HTTP/模擬器/autoplay 只操作 Machine）。
//   - 對內：持有 RNG（Core）與真正執行回合邏輯的 Engine。
//
// 並發語意：Machine 以 mutex 序列化所有操作，多 goroutine 共用是安全的，
// 但同一回合的 Spin 仍是一個接一個執行（不會交錯結算）。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Machine struct {
	gameName  string
	gameId    spec.GID
	set       *spec.BonusSetting
	core      *core.Core
	eng       *bonus.Engine
	mu        sync.Mutex
	initseed  int64
	coinValue decimal.Decimal
	log       *slog.Logger
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 同一份 BonusSetting + 同一個 seed + 同一串操作，得到完全相同的事件序列。
func newMachineWithSeed(bs *spec.BonusSetting, cf core.PRNGFactory, seed int64, log *slog.Logger) (*Machine, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := core.New(cf.New(seed))
	eng, err := bonus.New(bs, c)
	if err != nil {
		return nil, err
	}
	return &Machine{
		gameName:  bs.GameName,
		gameId:    bs.GameID,
		set:       bs,
		core:      c,
		eng:       eng,
		initseed:  seed,
		coinValue: decimal.NewFromInt(1),
		log:       log.With(slog.String("game", bs.GameName), slog.Uint64("gid", uint64(bs.GameID))),
	}, nil
}

func (m *Machine) GameName() string           { return m.gameName }
func (m *Machine) GameID() spec.GID           { return m.gameId }
func (m *Machine) Seed() int64                { return m.initseed }
func (m *Machine) Setting() *spec.BonusSetting { return m.set }

// SetCoinValue 設定派彩換算的單位金額（預設 1）。
func (m *Machine) SetCoinValue(v decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coinValue = v
}

func (m *Machine) CoinValue() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coinValue
}

// StartBonus 以空盤開始新回合。
func (m *Machine) StartBonus() (buf.RoundState, error) {
	return m.StartBonusWith(nil, nil)
}

// StartBonusWith 以指定圖標開局。
//
// startSnap 非空時，先把 Core 還原到該快照再開局（重播指定局面）。
func (m *Machine) StartBonusWith(placements []bonus.Placement, startSnap []byte) (st buf.RoundState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.recoverInto(&err, "start")

	if len(startSnap) != 0 {
		if err := m.core.Restore(startSnap); err != nil {
			return m.eng.State(), errs.WrapAs(errs.Warn, err, "restore core err")
		}
	}
	st, err = m.eng.StartBonusWith(placements)
	if err != nil {
		return st, err
	}
	m.log.Debug("bonus.start", slog.Int("placements", len(placements)), slog.Int("rows", st.Rows))
	return st, nil
}

// Spin 為主要公開入口：執行一轉並回傳對外結構（含前後 Core 快照）。
func (m *Machine) Spin() (dto.SpinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	startsnap, err := m.core.Snapshot()
	if err != nil {
		return dto.SpinResult{}, errs.WrapAs(errs.Fatal, err, "before snapshot error")
	}
	sr, err := m.spin()
	if err != nil {
		return dto.SpinResult{}, err
	}
	aftersnap, err := m.core.Snapshot()
	if err != nil {
		return dto.SpinResult{}, errs.WrapAs(errs.Fatal, err, "after snapshot error")
	}
	return dto.NewSpinResultDTO(m.gameName, m.gameId, m.coinValue, sr, startsnap, aftersnap), nil
}

// SpinInternal 直接取得內部 SpinResult；常用於模擬器或測試。
func (m *Machine) SpinInternal() (buf.SpinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spin()
}

// PlayRound 以空盤開局並一路 Spin 到結束，回傳最終狀態。
func (m *Machine) PlayRound() (buf.RoundState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playRound()
}

func (m *Machine) playRound() (st buf.RoundState, err error) {
	defer m.recoverInto(&err, "round")
	if st, err = m.eng.StartBonus(); err != nil {
		return st, err
	}
	for !st.Ended {
		sr, err := m.eng.Spin()
		if err != nil {
			return sr.State, err
		}
		st = sr.State
	}
	return st, nil
}

func (m *Machine) spin() (sr buf.SpinResult, err error) {
	defer m.recoverInto(&err, "spin")
	sr, err = m.eng.Spin()
	if err != nil {
		return sr, err
	}
	if sr.State.BigWin && sr.CountType(buf.EventBigWin) > 0 {
		m.log.Info("bonus.big_win", slog.Int64("total", sr.State.TotalValue), slog.Int("spin", sr.State.SpinIndex))
	}
	if sr.Ended && sr.Payout != nil {
		m.log.Info("bonus.end",
			slog.Int64("payout", *sr.Payout),
			slog.Int("spins", sr.State.SpinIndex),
			slog.Int("rows", sr.State.Rows),
			slog.Bool("capped", sr.State.TotalValue >= sr.State.Cap),
		)
	}
	return sr, nil
}

// recoverInto 把引擎內不可達狀態的 panic 轉成 Fatal error，機台仍可放棄本回合後重開。
func (m *Machine) recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = errs.Sentinelf(ErrMachinePanic, "%s: %v", op, r)
		m.log.Error("machine.panic", slog.String("op", op), slog.String("panic", fmt.Sprint(r)))
		m.eng.Abort()
	}
}

// SetTurbo 下一轉起生效；進行中的結算不受影響。
func (m *Machine) SetTurbo(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eng.SetTurbo(on)
}

// ResetBoard 放棄目前回合，不計派彩。
func (m *Machine) ResetBoard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng.ResetBoard()
}

func (m *Machine) State() buf.RoundState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng.State()
}

func (m *Machine) Board() []symbol.Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng.Board()
}

func (m *Machine) Events() []buf.EffectEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng.Events()
}

// SetObserver 每寫入一筆事件同步回呼；回呼內不可再呼叫 Machine（會死鎖）。
func (m *Machine) SetObserver(fn bonus.Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eng.SetObserver(fn)
}

// SnapshotCore 取得 Core 狀態暫存。
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存。
func (m *Machine) RestoreCore(src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Restore(src)
}

// SaveCore 以 blob frame 寫出 Core 快照。
func (m *Machine) SaveCore(w io.Writer) error {
	snap, err := m.SnapshotCore()
	if err != nil {
		return err
	}
	return corefmt.WriteBlobFrame(w, snap)
}

// LoadCore 讀回 SaveCore 的輸出。
func (m *Machine) LoadCore(r io.Reader) error {
	snap, err := corefmt.ReadBlobFrame(r, maxCoreBlob)
	if err != nil {
		return err
	}
	return m.RestoreCore(snap)
}

// abort 無條件放棄回合（session 被移除時）。
func (m *Machine) abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eng.Abort()
}

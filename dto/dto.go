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

// Package dto 定義對外（HTTP/JSON）輸出的結構，與引擎內部的 buf 型別解耦。
//
// 所有 DTO 都是值複本：轉換完成後與引擎狀態無共享記憶體，可以在離開 Machine 的臨界區後安全序列化。
package dto

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/moneycart/corefmt"
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

type SpinResult struct {
	GameName     string           `json:"game"`                    // 遊戲名稱
	GameID       spec.GID         `json:"gameid"`                  // 遊戲編號
	Spin         int              `json:"spin"`                    // 本回合第幾轉
	Events       []Event          `json:"events"`                  // 本轉事件（依 seq）
	Board        []Cell           `json:"board"`                   // 轉後盤面（window 內，row-major）
	State        RoundState       `json:"state"`                   // 轉後回合狀態
	IsEnd        bool             `json:"isend"`                   // 回合結束旗標
	Payout       *int64           `json:"payout,omitempty"`        // 結束時的派彩（base bet 單位）
	PayoutAmount *decimal.Decimal `json:"payout_amount,omitempty"` // 結束時的派彩金額（coin value × payout）
	Core         CoreState        `json:"core"`
}

// CoreState 本轉前後的 Core 快照（base64url），供審計與重現。
type CoreState struct {
	StartB64U string `json:"start_b64u"`
	AfterB64U string `json:"after_b64u"`
}

type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Target struct {
	CellRef
	Kind   string `json:"kind"`
	Before int64  `json:"before"`
	After  int64  `json:"after"`
}

type Event struct {
	Seq     int      `json:"seq"`
	Spin    int      `json:"spin"`
	Phase   string   `json:"phase"`
	Type    string   `json:"type"`
	Kind    string   `json:"kind,omitempty"`
	Source  *CellRef `json:"source,omitempty"`
	Targets []Target `json:"targets,omitempty"`
	Value   int64    `json:"value"`
	Dir     string   `json:"dir,omitempty"`
	Depth   int      `json:"depth,omitempty"`
}

type Cell struct {
	CellRef
	Kind       string `json:"kind"`
	Value      int64  `json:"value"`
	Persistent bool   `json:"persistent,omitempty"`
}

type RoundState struct {
	Phase           string `json:"phase"`
	Respins         int    `json:"respins"`
	RespinBase      int    `json:"respin_base"`
	Rows            int    `json:"rows"`
	Top             int    `json:"top"`
	Bottom          int    `json:"bottom"`
	FullRowsAwarded int    `json:"full_rows_awarded"`
	NextUnlock      string `json:"next_unlock"`
	Depth           string `json:"depth"`
	TotalValue      int64  `json:"total_value"`
	Cap             int64  `json:"cap"`
	SpinIndex       int    `json:"spin_index"`
	Turbo           bool   `json:"turbo"`
	BigWin          bool   `json:"big_win"`
	Ended           bool   `json:"ended"`
	Payout          int64  `json:"payout"`
}

func ref(c symbol.CellRef) CellRef { return CellRef{Row: c.Row, Col: c.Col} }

// NewEvent 轉換單筆事件；沒有來源圖標的事件（respin、row_unlock...）不輸出 kind。
func NewEvent(ev buf.EffectEvent) Event {
	out := Event{
		Seq:   ev.Seq,
		Spin:  ev.Spin,
		Phase: ev.Phase.String(),
		Type:  ev.Type.String(),
		Value: ev.Value,
		Depth: ev.Depth,
	}
	if ev.Source != nil {
		r := ref(*ev.Source)
		out.Source = &r
		out.Kind = ev.Kind.String()
	}
	if ev.Type == buf.EventRowUnlock {
		out.Dir = ev.Dir.String()
	}
	if len(ev.Targets) > 0 {
		out.Targets = make([]Target, len(ev.Targets))
		for i, t := range ev.Targets {
			out.Targets[i] = Target{CellRef: ref(t.Cell), Kind: t.Kind.String(), Before: t.Before, After: t.After}
		}
	}
	return out
}

func NewEvents(evs []buf.EffectEvent) []Event {
	out := make([]Event, len(evs))
	for i, ev := range evs {
		out[i] = NewEvent(ev)
	}
	return out
}

func NewBoard(board []symbol.Symbol) []Cell {
	out := make([]Cell, len(board))
	for i, s := range board {
		out[i] = Cell{CellRef: ref(s.Cell), Kind: s.Kind.String(), Value: s.Value, Persistent: s.Persistent()}
	}
	return out
}

func NewRoundState(st buf.RoundState) RoundState {
	return RoundState{
		Phase:           st.Phase.String(),
		Respins:         st.Respins,
		RespinBase:      st.RespinBase,
		Rows:            st.Rows,
		Top:             st.Top,
		Bottom:          st.Bottom,
		FullRowsAwarded: st.FullRowsAwarded,
		NextUnlock:      st.NextUnlock.String(),
		Depth:           st.DepthMode.String(),
		TotalValue:      st.TotalValue,
		Cap:             st.Cap,
		SpinIndex:       st.SpinIndex,
		Turbo:           st.Turbo,
		BigWin:          st.BigWin,
		Ended:           st.Ended,
		Payout:          st.Payout,
	}
}

// NewSpinResultDTO 把一轉的結果與前後 Core 快照轉成對外結構。
func NewSpinResultDTO(name string, gid spec.GID, coinValue decimal.Decimal, sr buf.SpinResult, start, after []byte) SpinResult {
	out := SpinResult{
		GameName: name,
		GameID:   gid,
		Spin:     sr.State.SpinIndex,
		Events:   NewEvents(sr.Events),
		Board:    NewBoard(sr.Board),
		State:    NewRoundState(sr.State),
		IsEnd:    sr.Ended,
		Core: CoreState{
			StartB64U: corefmt.EncodeBase64URL(start),
			AfterB64U: corefmt.EncodeBase64URL(after),
		},
	}
	if sr.Payout != nil {
		p := *sr.Payout
		amt := Amount(coinValue, p)
		out.Payout = &p
		out.PayoutAmount = &amt
	}
	return out
}

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

// Package buf 保存引擎對外輸出的值型別：效果事件、回合狀態與單轉結果。
//
// 事件紀錄（EventLog）是引擎與呈現層之間唯一的合約：
// 引擎一次算完整轉並依序寫入事件，呈現層照自己的節奏回放，回放結果不會回寫引擎。
package buf

import (
	"fmt"

	"github.com/zintix-labs/moneycart/sdk/grid"
	"github.com/zintix-labs/moneycart/sdk/symbol"
)

const capEventGrow int = 64

// Phase 回合狀態機的階段。
type Phase uint8

const (
	PhaseNoRound Phase = iota
	PhaseIdle
	PhaseSpawning
	PhaseResolvingTransient
	PhaseResolvingPersistent
	PhaseCheckingUnlock
	PhaseCheckingTermination
	PhaseEnded
)

var phaseNames = [...]string{
	PhaseNoRound:             "no_round",
	PhaseIdle:                "idle",
	PhaseSpawning:            "spawning",
	PhaseResolvingTransient:  "resolving_transient",
	PhaseResolvingPersistent: "resolving_persistent",
	PhaseCheckingUnlock:      "checking_unlock",
	PhaseCheckingTermination: "checking_termination",
	PhaseEnded:               "ended",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Resolving 是否正在結算一轉（Spawning ~ CheckingTermination）。
func (p Phase) Resolving() bool {
	return p >= PhaseSpawning && p <= PhaseCheckingTermination
}

// EventType 事件種類。
type EventType uint8

const (
	EventSpawn     EventType = iota // 生成圖標
	EventRespin                     // 重轉次數更新
	EventCollect                    // Collector 收集
	EventPay                        // Payer 廣播
	EventSnipe                      // Sniper 加倍
	EventRevive                     // Necromancer 復活
	EventUnlocker                   // Unlocker 純表演
	EventMutate                     // ArmsDealer 變異
	EventUpgrade                    // Upgrader 升級為常駐
	EventResetPlus                  // ResetPlus 加重轉
	EventRowUnlock                  // 開新列
	EventBigWin                     // 大獎提示（非終止）
	EventCap                        // 觸頂
	EventRoundEnd                   // 回合結束
)

var eventNames = [...]string{
	EventSpawn:     "spawn",
	EventRespin:    "respin",
	EventCollect:   "collect",
	EventPay:       "pay",
	EventSnipe:     "snipe",
	EventRevive:    "revive",
	EventUnlocker:  "unlocker",
	EventMutate:    "mutate",
	EventUpgrade:   "upgrade",
	EventResetPlus: "reset_plus",
	EventRowUnlock: "row_unlock",
	EventBigWin:    "big_win",
	EventCap:       "cap",
	EventRoundEnd:  "round_end",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Target 事件作用到的一個格子：前後值與（結算後的）種類。
type Target struct {
	Cell   symbol.CellRef
	Kind   symbol.Kind
	Before int64
	After  int64
}

// Delta 目標值變化量。
func (t Target) Delta() int64 { return t.After - t.Before }

// EffectEvent 一筆可回放的事件紀錄，足以讓呈現層不重算任何遊戲邏輯就能播放。
type EffectEvent struct {
	Seq     int             // 回合內流水號
	Spin    int             // 第幾轉（從 1 起算）
	Phase   Phase           // 產生時的階段
	Type    EventType       // 事件種類
	Kind    symbol.Kind     // 來源圖標種類（無來源時為 Coin）
	Source  *symbol.CellRef // 來源格；計數類事件為 nil
	Targets []Target
	Value   int64          // 事件主值：廣播值、收集量、新的重轉數、總值、派彩…
	Dir     grid.Direction // 僅 row_unlock 使用
	Depth   int            // Necromancer 復活深度，0 表示直接結算
}

// EventLog 依序累積事件並分配 Seq。
type EventLog struct {
	events []EffectEvent
	seq    int
}

func NewEventLog() *EventLog {
	return &EventLog{events: make([]EffectEvent, 0, capEventGrow)}
}

// Append 寫入事件並回傳其 Seq。
func (l *EventLog) Append(ev EffectEvent) int {
	l.seq++
	ev.Seq = l.seq
	l.events = append(l.events, ev)
	return ev.Seq
}

// Len 目前事件數。
func (l *EventLog) Len() int { return len(l.events) }

// Since 回傳從 idx 起的事件複本。
func (l *EventLog) Since(idx int) []EffectEvent {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(l.events) {
		return nil
	}
	out := make([]EffectEvent, len(l.events)-idx)
	copy(out, l.events[idx:])
	return out
}

// Last 最後一筆事件；空紀錄回傳 false。
func (l *EventLog) Last() (EffectEvent, bool) {
	if len(l.events) == 0 {
		return EffectEvent{}, false
	}
	return l.events[len(l.events)-1], true
}

// Reset 清空事件並把流水號歸零，保留已配置容量。
func (l *EventLog) Reset() {
	l.events = l.events[:0]
	l.seq = 0
}

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

package buf

import (
	"github.com/zintix-labs/moneycart/sdk/grid"
	"github.com/zintix-labs/moneycart/sdk/symbol"
)

// DepthMode 生成權重表的選擇：rows 不超過門檻用 Base，否則 Deep。
type DepthMode uint8

const (
	DepthBase DepthMode = iota
	DepthDeep
)

func (d DepthMode) String() string {
	if d == DepthDeep {
		return "deep"
	}
	return "base"
}

func (d DepthMode) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// RoundState 回合狀態的值快照，回傳給呼叫端後與引擎無關。
type RoundState struct {
	Respins         int
	RespinBase      int
	Rows            int
	Top             int
	Bottom          int
	FullRowsAwarded int
	NextUnlock      grid.Direction
	DepthMode       DepthMode
	Phase           Phase
	TotalValue      int64 // 回報值，觸頂時夾到 Cap
	Cap             int64
	SpinIndex       int
	Turbo           bool
	BigWin          bool
	Ended           bool
	Payout          int64 // Ended 才有意義
}

// Resolving 是否正在結算中。
func (s RoundState) Resolving() bool { return s.Phase.Resolving() }

// SpinResult 單轉結果：本轉事件、轉後狀態、是否結束與派彩。
type SpinResult struct {
	Events []EffectEvent
	State  RoundState
	Ended  bool
	Payout *int64
	Board  []symbol.Symbol // 轉後 window 內圖標（row-major）
}

// CountType 計算某事件種類出現次數。
func (r *SpinResult) CountType(t EventType) int {
	n := 0
	for i := range r.Events {
		if r.Events[i].Type == t {
			n++
		}
	}
	return n
}

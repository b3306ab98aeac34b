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

// Package symbol 定義 Money Cart 盤面上的圖標種類（封閉列舉）與圖標實體。
//
// 效果本身不在這裡實作；引擎以 Kind 當 key 查表分派（見 sdk/bonus）。
package symbol

import (
	"fmt"
	"math"
	"strings"
)

// Kind 圖標種類。前 10 種為一次性（transient），P 開頭為常駐（persistent）版本。
type Kind uint8

const (
	Coin Kind = iota
	Collector
	Payer
	ComboCP
	Sniper
	Necromancer
	Unlocker
	ArmsDealer
	Upgrader
	ResetPlus
	PCollector
	PPayer
	PSniper
	PComboCP
	PArmsDealer
	kindCount
)

var kindNames = [kindCount]string{
	Coin:        "coin",
	Collector:   "collector",
	Payer:       "payer",
	ComboCP:     "combo_cp",
	Sniper:      "sniper",
	Necromancer: "necromancer",
	Unlocker:    "unlocker",
	ArmsDealer:  "arms_dealer",
	Upgrader:    "upgrader",
	ResetPlus:   "reset_plus",
	PCollector:  "p_collector",
	PPayer:      "p_payer",
	PSniper:     "p_sniper",
	PComboCP:    "p_combo_cp",
	PArmsDealer: "p_arms_dealer",
}

// transient -> persistent
var counterpart = map[Kind]Kind{
	Collector:  PCollector,
	Payer:      PPayer,
	Sniper:     PSniper,
	ComboCP:    PComboCP,
	ArmsDealer: PArmsDealer,
}

// persistent -> transient（效果家族）
var base = map[Kind]Kind{
	PCollector:  Collector,
	PPayer:      Payer,
	PSniper:     Sniper,
	PComboCP:    ComboCP,
	PArmsDealer: ArmsDealer,
}

// TransientOrder 新生成圖標的結算順序。ResetPlus 排在最後。
var TransientOrder = []Kind{ArmsDealer, Upgrader, Payer, Sniper, Collector, ComboCP, Necromancer, Unlocker, ResetPlus}

// PersistentOrder 常駐圖標每一轉的結算順序。
var PersistentOrder = []Kind{PArmsDealer, PPayer, PSniper, PCollector, PComboCP}

var transientRank, persistentRank = rankOf(TransientOrder), rankOf(PersistentOrder)

func rankOf(order []Kind) [kindCount]int {
	var r [kindCount]int
	for i := range r {
		r[i] = -1
	}
	for i, k := range order {
		r[k] = i
	}
	return r
}

// Kinds 回傳所有種類（宣告順序）。
func Kinds() []Kind {
	ks := make([]Kind, 0, kindCount)
	for k := Coin; k < kindCount; k++ {
		ks = append(ks, k)
	}
	return ks
}

func (k Kind) Valid() bool { return k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Persistent 是否為常駐版本。
func (k Kind) Persistent() bool {
	_, ok := base[k]
	return ok
}

// Counterpart 回傳常駐版本；本身已是常駐時回傳自己。沒有常駐版本的種類回傳 false。
func (k Kind) Counterpart() (Kind, bool) {
	if k.Persistent() {
		return k, true
	}
	p, ok := counterpart[k]
	return p, ok
}

// Base 回傳效果家族（常駐 -> 一次性）；一次性種類回傳自己。
func (k Kind) Base() Kind {
	if b, ok := base[k]; ok {
		return b
	}
	return k
}

// Revivable Necromancer 可復活的家族：Collector / Payer / ComboCP / Sniper（不分常駐）。
func (k Kind) Revivable() bool {
	switch k.Base() {
	case Collector, Payer, ComboCP, Sniper:
		return true
	}
	return false
}

// Upgradable Upgrader 可升級的家族，範圍與 Revivable 相同。
func (k Kind) Upgradable() bool { return k.Revivable() }

// HasValue 生成時是否從 coin_values 抽面額。
func (k Kind) HasValue() bool {
	switch k {
	case Coin, Payer, PPayer:
		return true
	}
	return false
}

// TransientRank 在 TransientOrder 中的位置；不在列表中回傳 -1（例如 Coin）。
func (k Kind) TransientRank() int {
	if !k.Valid() {
		return -1
	}
	return transientRank[k]
}

// PersistentRank 在 PersistentOrder 中的位置；非常駐回傳 -1。
func (k Kind) PersistentRank() int {
	if !k.Valid() {
		return -1
	}
	return persistentRank[k]
}

// ParseKind 解析名稱（大小寫不敏感，接受 - 或 _ 分隔）。
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("symbol: invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("symbol: unknown kind %q", string(b))
	}
	*k = v
	return nil
}

// CellRef 盤面上的絕對座標（Row 以整個 MAX_ROWS 空間計）。
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c CellRef) String() string { return fmt.Sprintf("r%dc%d", c.Row, c.Col) }

// Symbol 盤面上的一個圖標。
//
// Dormant 表示本轉才由 ArmsDealer / Upgrader 換上的替代圖標，該轉的常駐結算會略過它。
type Symbol struct {
	ID      int     // 回合內生成序號
	Kind    Kind    // 種類
	Value   int64   // 倍數值，非負
	Cell    CellRef // 所在格
	Dormant bool
}

func New(kind Kind, value int64) *Symbol {
	return &Symbol{Kind: kind, Value: value}
}

func (s *Symbol) Persistent() bool { return s.Kind.Persistent() }

func (s *Symbol) String() string {
	return fmt.Sprintf("%s(%d)@%s", s.Kind, s.Value, s.Cell)
}

// AddValue 兩個非負值相加，溢位時停在 math.MaxInt64。
func AddValue(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// DoubleValue 非負值加倍，溢位時停在 math.MaxInt64。
func DoubleValue(v int64) int64 { return AddValue(v, v) }

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

// Package sampler 提供 bonus 引擎使用的加權抽樣表。
//
// 演算法（逐項扣減）：
//   - 在 [0, total) 均勻抽一個 r。
//   - 依宣告順序逐一扣掉權重，第一個讓餘數變成負數的標籤即為結果。
//
// 宣告順序是合約的一部分：同一個 r 永遠對應同一個標籤，因此表格一律以 slice（而非 map）保存，
// 避免 Go map 迭代順序不固定造成不可重現的結果。
//
// 建表時就做前置條件檢查（空表、負權重、全零權重），錯誤為 errs.Warn 等級並可用 errors.Is 比對。
package sampler

import (
	"math"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/core"
)

var (
	ErrEmptyTable     = errs.NewWarn("sampler: table has no entries")
	ErrZeroWeights    = errs.NewWarn("sampler: all weights are zero")
	ErrNegativeWeight = errs.NewWarn("sampler: negative weight")
	ErrLenMismatch    = errs.NewWarn("sampler: labels and weights length mismatch")
	ErrWeightOverflow = errs.NewWarn("sampler: total weight overflows int")
)

// Entry 為表格中的一列。
type Entry[L comparable] struct {
	Label  L
	Weight int
}

// Table 是不可變的加權抽樣表；建立後可被多個 Core 共用（唯讀）。
type Table[L comparable] struct {
	entries []Entry[L]
	total   int
}

// NewTable 依 labels/weights 建表，兩者需等長，至少一個權重 > 0。
func NewTable[L comparable](labels []L, weights []int) (*Table[L], error) {
	if len(labels) != len(weights) {
		return nil, errs.Sentinelf(ErrLenMismatch, "labels=%d weights=%d", len(labels), len(weights))
	}
	entries := make([]Entry[L], len(labels))
	for i := range labels {
		entries[i] = Entry[L]{Label: labels[i], Weight: weights[i]}
	}
	return NewTableFromEntries(entries)
}

// NewTableFromEntries 與 NewTable 相同，但直接接受 Entry 列表。
func NewTableFromEntries[L comparable](entries []Entry[L]) (*Table[L], error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	total := 0
	for i, e := range entries {
		if e.Weight < 0 {
			return nil, errs.Sentinelf(ErrNegativeWeight, "index=%d weight=%d", i, e.Weight)
		}
		if total > math.MaxInt-e.Weight {
			return nil, ErrWeightOverflow
		}
		total += e.Weight
	}
	if total == 0 {
		return nil, ErrZeroWeights
	}
	cp := make([]Entry[L], len(entries))
	copy(cp, entries)
	return &Table[L]{entries: cp, total: total}, nil
}

// MustTable 建表失敗時 panic；僅用於套件層級的固定表格。
func MustTable[L comparable](labels []L, weights []int) *Table[L] {
	t, err := NewTable(labels, weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Pick 以逐項扣減法抽出一個標籤。每次只消耗一次 IntN。
func (t *Table[L]) Pick(c *core.Core) L {
	r := c.IntN(t.total)
	for _, e := range t.entries {
		r -= e.Weight
		if r < 0 {
			return e.Label
		}
	}
	// total > 0 已於建表保證，理論上不可達
	return t.entries[len(t.entries)-1].Label
}

// Total 回傳權重總和。
func (t *Table[L]) Total() int { return t.total }

// Len 回傳列數（包含零權重）。
func (t *Table[L]) Len() int { return len(t.entries) }

// Weight 回傳 label 的權重；不存在回傳 0。
func (t *Table[L]) Weight(label L) int {
	w := 0
	for _, e := range t.entries {
		if e.Label == label {
			w += e.Weight
		}
	}
	return w
}

// Entries 回傳表格內容的複本。
func (t *Table[L]) Entries() []Entry[L] {
	cp := make([]Entry[L], len(t.entries))
	copy(cp, t.entries)
	return cp
}

// WeightedPick 一次性的加權抽樣：建表 + 抽一次。
// 熱路徑請先 NewTable 再重複 Pick。
func WeightedPick[L comparable](c *core.Core, labels []L, weights []int) (L, error) {
	t, err := NewTable(labels, weights)
	if err != nil {
		var zero L
		return zero, err
	}
	return t.Pick(c), nil
}

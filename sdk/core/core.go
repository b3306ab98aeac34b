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

// Package core 提供 bonus 引擎唯一的亂數來源。
//
// 引擎所有隨機決策（生成數量、生成格、圖標種類、Sniper 目標、變異機率…）都只從 Core 取樣，
// 因此「同一個 seed + 同一份設定」必定得到同一串事件紀錄；這是回放與審計的基礎。
package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// IntN / UintN 交由 PRNG 自己實作，讓 32-bit 與 64-bit 輸出的產生器各自走最合適的 bounded 路徑。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一實作、同一版本下 New(seed) 必須是決定性的。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 預設工廠，產生 PCG64。
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// PCG32Factory 產生 32-bit 輸出的 PCG32，適合 32-bit 平台的大量模擬。
type PCG32Factory struct{}

func (f *PCG32Factory) New(seed int64) PRNG {
	return newPCG32WithSeed(seed)
}

// FactoryByName 依名稱回傳工廠："pcg64"（預設）或 "pcg32"。
func FactoryByName(name string) (PRNGFactory, bool) {
	switch name {
	case "", "pcg64":
		return Default(), true
	case "pcg32":
		return &PCG32Factory{}, true
	default:
		return nil, false
	}
}

// Core 封裝 PRNG，並提供引擎常用的取樣工具。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}

// Chance 以 num/den 的機率回傳 true；num <= 0 永遠 false，num >= den 永遠 true（皆不消耗亂數）。
func (c *Core) Chance(num, den int) bool {
	if num <= 0 || den <= 0 {
		return false
	}
	if num >= den {
		return true
	}
	return c.IntN(den) < num
}

// Between 回傳 [lo,hi] 的整數；lo >= hi 時直接回傳 lo（不消耗亂數）。
func (c *Core) Between(lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + c.IntN(hi-lo+1)
}

// Sample 從 [0,n) 中不放回抽出 k 個相異索引，回傳順序即抽出順序。
//
// 使用部分 Fisher-Yates：只洗前 k 個位置，時間 O(n)、只消耗 k 次亂數。
// k >= n 時回傳全部 n 個索引（仍為隨機順序）；k <= 0 或 n <= 0 回傳 nil。
func (c *Core) Sample(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	k = min(k, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + c.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// ShuffleInts 使用 Fisher-Yates 對 []int 做就地隨機重排。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}
	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// ExpFloat64 回傳 rate=1 的指數分佈亂數（反函數法），永遠 > 0。
func (c *Core) ExpFloat64() float64 {
	for {
		u := c.Float64()
		if u > 0 {
			return -math.Log(u)
		}
	}
}

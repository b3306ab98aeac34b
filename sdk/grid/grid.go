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

// Package grid 實作固定大小的盤面與可移動的 active window。
//
// 盤面是 Cols × MaxRows 的格子，以 row-major 的一維 slice 保存。
// 只有 [Top, Bottom] 之間的列是 active：window 外的格子永遠不會被生成、不計入滿列檢查、也不計入總值。
// 不變式：Rows() == Bottom - Top + 1，且 window 只會長大。
package grid

import (
	"fmt"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/symbol"
)

type CellRef = symbol.CellRef

var (
	ErrDims        = errs.NewFatal("grid: invalid dimensions")
	ErrOutOfWindow = errs.NewWarn("grid: cell outside active window")
	ErrOccupied    = errs.NewWarn("grid: cell already occupied")
	ErrEmptyCell   = errs.NewWarn("grid: cell is empty")
)

// Direction 解鎖方向。
type Direction uint8

const (
	Top Direction = iota
	Bottom
)

func (d Direction) Flip() Direction {
	if d == Top {
		return Bottom
	}
	return Top
}

func (d Direction) String() string {
	if d == Top {
		return "top"
	}
	return "bottom"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "top":
		*d = Top
	case "bottom":
		*d = Bottom
	default:
		return fmt.Errorf("grid: unknown direction %q", string(b))
	}
	return nil
}

// Grid 盤面。
type Grid struct {
	cols    int
	maxRows int
	cells   []*symbol.Symbol
	top     int
	bottom  int
}

// New 建立盤面並以 startRows 列置中開窗。
func New(cols, maxRows, startRows int) (*Grid, error) {
	if cols <= 0 || maxRows <= 0 || startRows <= 0 || startRows > maxRows {
		return nil, errs.Sentinelf(ErrDims, "cols=%d max_rows=%d start_rows=%d", cols, maxRows, startRows)
	}
	g := &Grid{
		cols:    cols,
		maxRows: maxRows,
		cells:   make([]*symbol.Symbol, cols*maxRows),
	}
	g.Reset(startRows)
	return g, nil
}

// Reset 清空盤面並重新置中開窗。startRows 超出範圍時夾到 [1, MaxRows]。
func (g *Grid) Reset(startRows int) {
	clear(g.cells)
	startRows = max(1, min(startRows, g.maxRows))
	g.top = (g.maxRows - startRows) / 2
	g.bottom = g.top + startRows - 1
}

func (g *Grid) Cols() int    { return g.cols }
func (g *Grid) MaxRows() int { return g.maxRows }
func (g *Grid) Top() int     { return g.top }
func (g *Grid) Bottom() int  { return g.bottom }
func (g *Grid) Rows() int    { return g.bottom - g.top + 1 }

func (g *Grid) inBounds(c CellRef) bool {
	return c.Row >= 0 && c.Row < g.maxRows && c.Col >= 0 && c.Col < g.cols
}

func (g *Grid) idx(c CellRef) int { return c.Row*g.cols + c.Col }

// InWindow 是否位於 active window 內。
func (g *Grid) InWindow(c CellRef) bool {
	return g.inBounds(c) && c.Row >= g.top && c.Row <= g.bottom
}

// At 回傳格子內的圖標；空格或越界回傳 nil。
func (g *Grid) At(c CellRef) *symbol.Symbol {
	if !g.inBounds(c) {
		return nil
	}
	return g.cells[g.idx(c)]
}

// Place 把圖標放到空的 active 格，並寫回 s.Cell。
func (g *Grid) Place(c CellRef, s *symbol.Symbol) error {
	if !g.InWindow(c) {
		return errs.Sentinelf(ErrOutOfWindow, "place at %s", c)
	}
	i := g.idx(c)
	if g.cells[i] != nil {
		return errs.Sentinelf(ErrOccupied, "place at %s", c)
	}
	s.Cell = c
	g.cells[i] = s
	return nil
}

// Replace 原地替換已有圖標，回傳被換下的圖標。
func (g *Grid) Replace(c CellRef, s *symbol.Symbol) (*symbol.Symbol, error) {
	if !g.InWindow(c) {
		return nil, errs.Sentinelf(ErrOutOfWindow, "replace at %s", c)
	}
	i := g.idx(c)
	old := g.cells[i]
	if old == nil {
		return nil, errs.Sentinelf(ErrEmptyCell, "replace at %s", c)
	}
	s.Cell = c
	g.cells[i] = s
	return old, nil
}

// EmptyActiveCells window 內所有空格，row-major。
func (g *Grid) EmptyActiveCells() []CellRef {
	out := make([]CellRef, 0, g.Rows()*g.cols)
	for r := g.top; r <= g.bottom; r++ {
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] == nil {
				out = append(out, CellRef{Row: r, Col: c})
			}
		}
	}
	return out
}

// FullActiveRows 每一欄都有圖標的 window 列，回傳相對索引（0 = Top）。
func (g *Grid) FullActiveRows() []int {
	var out []int
	for r := g.top; r <= g.bottom; r++ {
		full := true
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] == nil {
				full = false
				break
			}
		}
		if full {
			out = append(out, r-g.top)
		}
	}
	return out
}

// Expand 往 dir 方向多開一列。
//
// 指定方向已到邊界時改開另一側，確保 Rows() 與 window 範圍永遠一致。
// 已達 MaxRows 時不動作並回傳 false。
func (g *Grid) Expand(dir Direction) (used Direction, grown bool) {
	if g.Rows() >= g.maxRows {
		return dir, false
	}
	switch {
	case dir == Top && g.top > 0:
		g.top--
		return Top, true
	case dir == Bottom && g.bottom < g.maxRows-1:
		g.bottom++
		return Bottom, true
	case g.top > 0:
		g.top--
		return Top, true
	default:
		g.bottom++
		return Bottom, true
	}
}

// ActiveSymbols window 內所有圖標，row-major。
func (g *Grid) ActiveSymbols() []*symbol.Symbol {
	out := make([]*symbol.Symbol, 0, g.Rows()*g.cols)
	for r := g.top; r <= g.bottom; r++ {
		for c := 0; c < g.cols; c++ {
			if s := g.cells[r*g.cols+c]; s != nil {
				out = append(out, s)
			}
		}
	}
	return out
}

// SumActive window 內圖標值總和（飽和於 math.MaxInt64）。
func (g *Grid) SumActive() int64 {
	var sum int64
	for _, s := range g.ActiveSymbols() {
		sum = symbol.AddValue(sum, s.Value)
	}
	return sum
}

// Snapshot 回傳 window 內圖標的值複本（row-major），呼叫端修改不影響盤面。
func (g *Grid) Snapshot() []symbol.Symbol {
	act := g.ActiveSymbols()
	out := make([]symbol.Symbol, len(act))
	for i, s := range act {
		out[i] = *s
	}
	return out
}

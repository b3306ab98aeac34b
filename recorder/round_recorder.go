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

package recorder

import (
	"fmt"
	"strconv"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/spec"
	"github.com/zintix-labs/moneycart/stats"
)

const (
	maxSpinBin = 30      // 回合轉數分桶上限（30+）
	maxSamples = 1 << 20 // 分位數樣本上限，超過只計數不取樣
)

// RoundRecorder 回合紀錄員
//
// 每個已結束的回合以最終 RoundState 紀錄一次，並透過 Done 輸出統計報表。
// 非併發安全：SimMP 每個 worker 各持一份，最後 Merge。
type RoundRecorder struct {
	GameName  string
	GameId    spec.GID
	BaseBet   int64
	Cap       int64
	StartRows int
	MaxRows   int
	Basic     *BasicRecord
	Dist      *DistRecord
	samples   []float64
}

// BasicRecord 基本回合資料紀錄
type BasicRecord struct {
	Rounds      int
	Spins       int
	TotalMult   int64
	MultSqSum   float64 // 平方和（float 避免 cap² × rounds 溢位）
	TotalPayout int64
	CapHits     int
	BigWins     int
	ZeroRounds  int
	RowsSum     int
}

// DistRecord 分布落點統計
type DistRecord struct {
	Bucket       *stats.WinBuckets
	WinCollect   []int
	RowsCollect  []int // index = 最終列數
	SpinsCollect []int // index = 回合轉數（上限 maxSpinBin）
}

func NewRoundRecorder(bs *spec.BonusSetting) (*RoundRecorder, error) {
	if bs == nil {
		return nil, errs.NewFatal("bonus setting required")
	}
	if bs.BaseBet < 1 || bs.Cap < 1 {
		return nil, errs.NewFatal(fmt.Sprintf("invalid bet/cap: base_bet=%d cap=%d", bs.BaseBet, bs.Cap))
	}
	if bs.Grid.MaxRows < 1 || bs.Grid.StartRows < 1 || bs.Grid.StartRows > bs.Grid.MaxRows {
		return nil, errs.NewFatal(fmt.Sprintf("invalid grid rows: %+v", bs.Grid))
	}
	r := &RoundRecorder{
		GameName:  bs.GameName,
		GameId:    bs.GameID,
		BaseBet:   bs.BaseBet,
		Cap:       bs.Cap,
		StartRows: bs.Grid.StartRows,
		MaxRows:   bs.Grid.MaxRows,
		Basic:     new(BasicRecord),
		Dist: &DistRecord{
			Bucket:       stats.Buckets,
			WinCollect:   make([]int, stats.Buckets.Len()),
			RowsCollect:  make([]int, bs.Grid.MaxRows+1),
			SpinsCollect: make([]int, maxSpinBin+1),
		},
	}
	return r, nil
}

// Record 以回合結束時的 RoundState 更新統計；未結束的回合忽略並回傳 false。
func (r *RoundRecorder) Record(st buf.RoundState) bool {
	if !st.Ended {
		return false
	}
	b := r.Basic
	mult := st.TotalValue
	b.Rounds++
	b.Spins += st.SpinIndex
	b.TotalMult += mult
	b.MultSqSum += float64(mult) * float64(mult)
	b.TotalPayout += st.Payout
	b.RowsSum += st.Rows
	if mult >= r.Cap {
		b.CapHits++
	}
	if st.BigWin {
		b.BigWins++
	}
	if mult == 0 {
		b.ZeroRounds++
	}

	d := r.Dist
	d.WinCollect[d.Bucket.Index(mult)]++
	d.RowsCollect[min(max(st.Rows, 0), r.MaxRows)]++
	d.SpinsCollect[min(max(st.SpinIndex, 0), maxSpinBin)]++

	if len(r.samples) < maxSamples {
		r.samples = append(r.samples, float64(mult))
	}
	return true
}

// Merge 合併多份紀錄（同一設定）。
func Merge(rs []*RoundRecorder) (*RoundRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge round record err : empty input")
	}
	r0 := rs[0]
	out := &RoundRecorder{
		GameName:  r0.GameName,
		GameId:    r0.GameId,
		BaseBet:   r0.BaseBet,
		Cap:       r0.Cap,
		StartRows: r0.StartRows,
		MaxRows:   r0.MaxRows,
		Basic:     new(BasicRecord),
		Dist: &DistRecord{
			Bucket:       r0.Dist.Bucket,
			WinCollect:   make([]int, len(r0.Dist.WinCollect)),
			RowsCollect:  make([]int, len(r0.Dist.RowsCollect)),
			SpinsCollect: make([]int, len(r0.Dist.SpinsCollect)),
		},
	}
	for _, v := range rs {
		if v.GameName != r0.GameName || v.GameId != r0.GameId {
			return nil, errs.NewFatal("merge round record err : different game")
		}
		if v.BaseBet != r0.BaseBet || v.Cap != r0.Cap || v.MaxRows != r0.MaxRows {
			return nil, errs.NewFatal("merge round record err : different setting")
		}
		b := out.Basic
		b.Rounds += v.Basic.Rounds
		b.Spins += v.Basic.Spins
		b.TotalMult += v.Basic.TotalMult
		b.MultSqSum += v.Basic.MultSqSum
		b.TotalPayout += v.Basic.TotalPayout
		b.CapHits += v.Basic.CapHits
		b.BigWins += v.Basic.BigWins
		b.ZeroRounds += v.Basic.ZeroRounds
		b.RowsSum += v.Basic.RowsSum
		addInto(out.Dist.WinCollect, v.Dist.WinCollect)
		addInto(out.Dist.RowsCollect, v.Dist.RowsCollect)
		addInto(out.Dist.SpinsCollect, v.Dist.SpinsCollect)
		if room := maxSamples - len(out.samples); room > 0 {
			out.samples = append(out.samples, v.samples[:min(room, len(v.samples))]...)
		}
	}
	return out, nil
}

func addInto(dst, src []int) {
	for i := range min(len(dst), len(src)) {
		dst[i] += src[i]
	}
}

// Done 產出報表（已呼叫 StatReport.Done）。
func (r *RoundRecorder) Done() *stats.StatReport {
	b := r.Basic
	rowsLabel := make([]string, 0, r.MaxRows-r.StartRows+1)
	rowsCollect := make([]int, 0, r.MaxRows-r.StartRows+1)
	for rows := r.StartRows; rows <= r.MaxRows; rows++ {
		rowsLabel = append(rowsLabel, strconv.Itoa(rows))
		rowsCollect = append(rowsCollect, r.Dist.RowsCollect[rows])
	}
	spinsLabel := make([]string, maxSpinBin+1)
	for i := range spinsLabel {
		spinsLabel[i] = strconv.Itoa(i)
	}
	spinsLabel[maxSpinBin] += "+"

	avgRows := 0.0
	if b.Rounds > 0 {
		avgRows = float64(b.RowsSum) / float64(b.Rounds)
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:    r.GameName,
			GameId:      r.GameId,
			BaseBet:     r.BaseBet,
			Cap:         r.Cap,
			Rounds:      b.Rounds,
			Spins:       b.Spins,
			TotalPayout: b.TotalPayout,
			CapHits:     b.CapHits,
			BigWins:     b.BigWins,
			ZeroRounds:  b.ZeroRounds,
			AvgRows:     avgRows,
		},
		Mult: &stats.MultReport{
			TotalMult:      float64(b.TotalMult),
			TotalMultSqSum: b.MultSqSum,
		},
		Dist: &stats.DistReport{
			WinBucket:    r.Dist.Bucket.WinBucketStr(),
			WinCollect:   append([]int(nil), r.Dist.WinCollect...),
			RowsLabel:    rowsLabel,
			RowsCollect:  rowsCollect,
			SpinsLabel:   spinsLabel,
			SpinsCollect: append([]int(nil), r.Dist.SpinsCollect...),
		},
		Samples: r.samples,
	}
	report.Done()
	return report
}

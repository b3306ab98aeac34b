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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// Estimates 回合層級的點估計與信賴區間
type Estimates struct {
	CapRate    PointStat   // 觸頂比例（CP 95% CI）
	BigWinRate PointStat   // 大獎提示比例（CP 95% CI）
	ZeroRate   PointStat   // 零贏倍比例（CP 95% CI）
	Quantiles  []QuantStat // 贏倍分位數（order statistic 95% CI）
	Sampled    int         // 參與分位數計算的樣本數
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// QuantStat 第 Q 分位的點估計
type QuantStat struct {
	Q float64
	PointStat
}

// 預設輸出的分位
var reportQuantiles = []float64{0.5, 0.9, 0.99}

// ============================================================
// ** 對外 **
// ============================================================

func estimate(s *StatReport) *Estimates {
	sum := s.Summary
	out := &Estimates{Sampled: len(s.Samples)}
	out.CapRate.Hat, out.CapRate.CI = proportionCICP(sum.CapHits, sum.Rounds, 0.95)
	out.BigWinRate.Hat, out.BigWinRate.CI = proportionCICP(sum.BigWins, sum.Rounds, 0.95)
	out.ZeroRate.Hat, out.ZeroRate.CI = proportionCICP(sum.ZeroRounds, sum.Rounds, 0.95)
	if len(s.Samples) == 0 {
		return out
	}
	sorted := make([]float64, len(s.Samples))
	copy(sorted, s.Samples)
	sort.Float64s(sorted)
	for _, q := range reportQuantiles {
		lo, hi := quantileCI(sorted, q, 0.95)
		out.Quantiles = append(out.Quantiles, QuantStat{
			Q:         q,
			PointStat: PointStat{Hat: quantilePoint(sorted, q), CI: CI{Lo: lo, Hi: hi}},
		})
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 估計「第 q 分位」的上下界：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// sorted 必須已遞增排序。
func quantileCI(sorted []float64, q, confidence float64) (float64, float64) {
	n := len(sorted)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return sorted[0], sorted[0]
	}
	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := clampIdx(int(pLo*float64(n)), n)
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	ui = clampIdx(ui, n)
	return sorted[li], sorted[ui]
}

// quantilePoint 經驗分位數（sorted 必須已排序）
func quantilePoint(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Out 輸出估計表
func (est *Estimates) Out() {
	fmt.Println("=== Round Estimates (95% CI) ===")
	keys := []string{"Cap rate", "Big win rate", "Zero rate"}
	msg := map[string]string{
		"Cap rate":     fmtHatCIpct01(est.CapRate.Hat, est.CapRate.CI),
		"Big win rate": fmtHatCIpct01(est.BigWinRate.Hat, est.BigWinRate.CI),
		"Zero rate":    fmtHatCIpct01(est.ZeroRate.Hat, est.ZeroRate.CI),
	}
	for _, q := range est.Quantiles {
		k := fmt.Sprintf("Mult P%g", q.Q*100)
		keys = append(keys, k)
		msg[k] = fmt.Sprintf("%.0fx [%.0fx, %.0fx]", q.Hat, q.CI.Lo, q.CI.Hi)
	}
	printTable(fmt.Sprintf("samples=%d", est.Sampled), keys, msg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/moneycart/stats"
)

// buildStatReport constructs a StatReport from a list of round multipliers.
func buildStatReport(cap int64, mults []int64) *stats.StatReport {
	L := stats.Buckets.Len()
	wc := make([]int, L)
	var total, sq float64
	var capHits, zero int
	samples := make([]float64, 0, len(mults))
	for _, m := range mults {
		wc[stats.Buckets.Index(m)]++
		total += float64(m)
		sq += float64(m) * float64(m)
		if m >= cap {
			capHits++
		}
		if m == 0 {
			zero++
		}
		samples = append(samples, float64(m))
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:   "TestGame",
			BaseBet:    1,
			Cap:        cap,
			Rounds:     len(mults),
			Spins:      3 * len(mults),
			CapHits:    capHits,
			ZeroRounds: zero,
		},
		Mult: &stats.MultReport{TotalMult: total, TotalMultSqSum: sq},
		Dist: &stats.DistReport{
			WinBucket:  stats.Buckets.WinBucketStr(),
			WinCollect: wc,
		},
		Samples: samples,
	}
	report.Done()
	return report
}

func TestBucketIndex(t *testing.T) {
	cases := map[int64]string{
		0:     "[0,0]",
		1:     "[1,2)",
		4:     "[2,5)",
		100:   "[100,300)",
		1999:  "[1000,2000)",
		2000:  "[2000,10000)",
		15000: "[10000,+inf)",
	}
	labels := stats.Buckets.WinBucketStr()
	for m, want := range cases {
		if got := labels[stats.Buckets.Index(m)]; got != want {
			t.Errorf("mult %d: got %s want %s", m, got, want)
		}
	}
}

func TestStatReportCoreMetrics(t *testing.T) {
	rep := buildStatReport(100, []int64{10, 20})

	if got := rep.Mean(); math.Abs(got-15) > 1e-12 {
		t.Fatalf("mean got %.12f want 15", got)
	}
	variance := ((100.0 + 400.0) - 30.0*30.0/2) / (2 - 1)
	wantStd := math.Sqrt(variance)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}
	if got := rep.Cv(); math.Abs(got-wantStd/15) > 1e-12 {
		t.Fatalf("CV got %.12f", got)
	}
	if ci := rep.Summary.MultCI; !(ci.Lo <= 15 && ci.Hi >= 15) {
		t.Fatalf("CI %+v does not cover mean", ci)
	}
	if rep.Summary.AvgSpins != 3 {
		t.Fatalf("avg spins %.2f", rep.Summary.AvgSpins)
	}

	total := 0
	for _, c := range rep.Dist.WinCollect {
		total += c
	}
	if total != rep.Summary.Rounds {
		t.Fatalf("distribution total %d != rounds %d", total, rep.Summary.Rounds)
	}

	rep.Done() // idempotent
	if rep.Mean() != 15 {
		t.Fatalf("mean changed after second Done")
	}
}

func TestEstimates(t *testing.T) {
	mults := make([]int64, 0, 100)
	for i := range 100 {
		mults = append(mults, int64(i))
	}
	rep := buildStatReport(90, mults)
	est := rep.Est
	if est == nil || len(est.Quantiles) != 3 {
		t.Fatalf("missing quantiles: %+v", est)
	}
	med := est.Quantiles[0]
	if math.Abs(med.Hat-50) > 2 {
		t.Fatalf("median expected ~50, got %.2f", med.Hat)
	}
	if med.CI.Lo > med.Hat || med.CI.Hi < med.Hat {
		t.Fatalf("median CI %+v does not cover %.2f", med.CI, med.Hat)
	}
	if est.CapRate.Hat != 0.10 {
		t.Fatalf("cap rate got %.2f want 0.10", est.CapRate.Hat)
	}
	if est.CapRate.CI.Lo <= 0 || est.CapRate.CI.Hi >= 1 {
		t.Fatalf("cap rate CI %+v", est.CapRate.CI)
	}
	if est.ZeroRate.Hat != 0.01 {
		t.Fatalf("zero rate got %.2f", est.ZeroRate.Hat)
	}
}

func TestRenders(t *testing.T) {
	rep := buildStatReport(100, []int64{0, 5, 150})
	for _, name := range []string{"json", "yaml"} {
		r, ok := stats.RenderByName(name)
		if !ok {
			t.Fatalf("render %s missing", name)
		}
		var b bytes.Buffer
		if err := rep.WriteWith(&b, r); err != nil {
			t.Fatalf("%s render: %v", name, err)
		}
		if !strings.Contains(b.String(), "TestGame") {
			t.Fatalf("%s output missing game name: %s", name, b.String())
		}
	}
	if _, ok := stats.RenderByName("xml"); ok {
		t.Fatalf("unknown render accepted")
	}
	tbl := rep.Table()
	if !strings.Contains(tbl, "Avg Mult") || !strings.Contains(tbl, "Mult P50") {
		t.Fatalf("table missing rows:\n%s", tbl)
	}
}

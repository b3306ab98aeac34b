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
	"testing"

	"github.com/zintix-labs/moneycart/sdk/buf"
	"github.com/zintix-labs/moneycart/spec"
)

func ended(total int64, rows, spins int, big bool) buf.RoundState {
	return buf.RoundState{Ended: true, TotalValue: total, Payout: total, Rows: rows, SpinIndex: spins, BigWin: big}
}

func TestRecordAndDone(t *testing.T) {
	bs := spec.Default("rec", 7)
	r, err := NewRoundRecorder(bs)
	if err != nil {
		t.Fatal(err)
	}
	if r.Record(buf.RoundState{TotalValue: 99}) {
		t.Fatalf("unfinished round recorded")
	}
	r.Record(ended(0, 4, 3, false))
	r.Record(ended(120, 6, 12, true))
	r.Record(ended(bs.Cap, 8, 45, true))

	rep := r.Done()
	s := rep.Summary
	if s.Rounds != 3 || s.Spins != 60 || s.CapHits != 1 || s.BigWins != 2 || s.ZeroRounds != 1 {
		t.Fatalf("summary wrong: %+v", s)
	}
	if s.AvgRows != 6 {
		t.Fatalf("avg rows %.2f", s.AvgRows)
	}
	if len(rep.Dist.RowsLabel) != bs.Grid.MaxRows-bs.Grid.StartRows+1 || rep.Dist.RowsLabel[0] != "4" {
		t.Fatalf("rows labels %v", rep.Dist.RowsLabel)
	}
	if rep.Dist.SpinsCollect[maxSpinBin] != 1 || rep.Dist.SpinsLabel[maxSpinBin] != "30+" {
		t.Fatalf("spin overflow bin not used")
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples %d", len(rep.Samples))
	}
}

func TestMerge(t *testing.T) {
	bs := spec.Default("rec", 7)
	a, _ := NewRoundRecorder(bs)
	b, _ := NewRoundRecorder(bs)
	a.Record(ended(10, 4, 3, false))
	b.Record(ended(20, 5, 4, false))
	b.Record(ended(30, 5, 5, false))
	m, err := Merge([]*RoundRecorder{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if m.Basic.Rounds != 3 || m.Basic.TotalMult != 60 || m.Dist.RowsCollect[5] != 2 {
		t.Fatalf("merge wrong: %+v", m.Basic)
	}
	other, _ := NewRoundRecorder(spec.Default("other", 8))
	if _, err := Merge([]*RoundRecorder{a, other}); err == nil {
		t.Fatalf("merge of different games accepted")
	}
	if _, err := Merge(nil); err == nil {
		t.Fatalf("empty merge accepted")
	}
}

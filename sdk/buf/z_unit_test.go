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

import "testing"

func TestEventLogSeqAndReset(t *testing.T) {
	l := NewEventLog()
	for i := 0; i < 3; i++ {
		if seq := l.Append(EffectEvent{Type: EventSpawn}); seq != i+1 {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
	}
	tail := l.Since(1)
	if len(tail) != 2 || tail[0].Seq != 2 {
		t.Fatalf("unexpected tail: %+v", tail)
	}
	tail[0].Value = 99
	if l.Since(1)[0].Value == 99 {
		t.Fatalf("Since must return a copy")
	}
	if l.Since(3) != nil {
		t.Fatalf("Since past end should be nil")
	}
	last, ok := l.Last()
	if !ok || last.Seq != 3 {
		t.Fatalf("last wrong: %+v", last)
	}
	l.Reset()
	if l.Len() != 0 || l.Append(EffectEvent{}) != 1 {
		t.Fatalf("reset should restart numbering")
	}
}

func TestPhaseResolving(t *testing.T) {
	resolving := map[Phase]bool{
		PhaseNoRound:             false,
		PhaseIdle:                false,
		PhaseSpawning:            true,
		PhaseResolvingTransient:  true,
		PhaseResolvingPersistent: true,
		PhaseCheckingUnlock:      true,
		PhaseCheckingTermination: true,
		PhaseEnded:               false,
	}
	for p, want := range resolving {
		if p.Resolving() != want {
			t.Errorf("%s resolving=%v", p, p.Resolving())
		}
	}
	if EventRowUnlock.String() != "row_unlock" || Phase(99).String() != "phase(99)" {
		t.Fatalf("unexpected names")
	}
}

func TestCountType(t *testing.T) {
	r := SpinResult{Events: []EffectEvent{{Type: EventSpawn}, {Type: EventPay}, {Type: EventSpawn}}}
	if r.CountType(EventSpawn) != 2 || r.CountType(EventCap) != 0 {
		t.Fatalf("CountType wrong")
	}
}

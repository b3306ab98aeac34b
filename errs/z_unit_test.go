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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("bad request")
	w := Wrap(base, "outer")
	if w.ErrLv != Warn {
		t.Fatalf("expected warn, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("wrapped error must match its cause")
	}
	if lv := LevelOf(Wrap(io.EOF, "read")); lv != Fatal {
		t.Fatalf("foreign cause should be fatal, got %s", ErrLv(lv))
	}
	if LevelOf(nil) != None {
		t.Fatalf("nil error should have no level")
	}
}

func TestSentinelf(t *testing.T) {
	sentinel := NewWarn("round busy")
	err := Sentinelf(sentinel, "phase=%s", "spawning")
	if !errors.Is(err, sentinel) {
		t.Fatalf("sentinel identity lost")
	}
	if err.ErrLv != Warn {
		t.Fatalf("sentinel level lost")
	}
	if !strings.Contains(err.Error(), "phase=spawning") {
		t.Fatalf("extra missing: %s", err.Error())
	}
}

func TestWrapAsOverridesLevel(t *testing.T) {
	base := NewWarn("empty table")
	err := WrapAs(Fatal, base, "config")
	if err.ErrLv != Fatal || !errors.Is(err, base) {
		t.Fatalf("WrapAs should force the level and keep the chain")
	}
}

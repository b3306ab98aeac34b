package perf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunPProfModes(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range Modes {
		ran := false
		if err := RunPProf(func() { ran = true }, mode, dir); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if !ran {
			t.Fatalf("%s: exe not called", mode)
		}
		if _, err := os.Stat(filepath.Join(dir, mode+".pprof")); err != nil {
			t.Fatalf("%s profile missing: %v", mode, err)
		}
	}
	if err := RunPProf(func() {}, "trace", dir); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

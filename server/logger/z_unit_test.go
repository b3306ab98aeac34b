package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/zintix-labs/moneycart/errs"
)

func TestParseLogMode(t *testing.T) {
	cases := map[string]LogMode{
		"":        ModeDev,
		"dev":     ModeDev,
		" PROD ":  ModeProd,
		"silence": ModeSilence,
		"off":     ModeSilence,
	}
	for in, want := range cases {
		got, err := ParseLogMode(in)
		if err != nil || got != want {
			t.Errorf("ParseLogMode(%q)=%s,%v want %s", in, got, err, want)
		}
	}
	if _, err := ParseLogMode("verbose"); err == nil || errs.LevelOf(err) != errs.Warn {
		t.Fatalf("unknown mode should be a warn error, got %v", err)
	}
}

func TestSilenceDiscards(t *testing.T) {
	l := NewDefaultLogger(ModeSilence)
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("silence logger should not be enabled")
	}
}

func TestAsyncDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16)
	l := NewLogger(ah)
	for i := range 3 {
		l.Info("bonus.spin", slog.Int("i", i))
	}
	ah.Close()
	if n := strings.Count(buf.String(), `"msg":"bonus.spin"`); n != 3 {
		t.Fatalf("expected 3 drained records, got %d", n)
	}
	l.Info("late")
	if ah.Dropped() != 1 {
		t.Fatalf("records after close should be dropped, got %d", ah.Dropped())
	}
	ah.Close()
}

func TestProdCarriesService(t *testing.T) {
	h := buildHandler(ModeProd)
	if !h.Enabled(context.Background(), slog.LevelInfo) || h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("prod should log info and skip debug")
	}
}

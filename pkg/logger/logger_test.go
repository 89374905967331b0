package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(buf, &Options{
		Level:       level,
		TimeFormat:  "15:04:05",
		SrcFileMode: Nop,
		NoColor:     true,
	}))
}

func TestHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelInfo)

	log.Info("saving transcription", "path", "transcriptions/a.json")

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Errorf("output missing level badge: %q", out)
	}
	if !strings.Contains(out, "saving transcription") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "path=transcriptions/a.json") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelWarn)

	log.Info("should be dropped")

	if buf.Len() != 0 {
		t.Errorf("expected empty output, got %q", buf.String())
	}
}

func TestHandlerRunID(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelInfo)

	ctx := ContextWithRunID(context.Background(), "a1b2c3d4")
	log.InfoContext(ctx, "fetching media")

	if !strings.Contains(buf.String(), "a1b2c3d4") {
		t.Errorf("output missing run id: %q", buf.String())
	}
}

func TestHandlersDerivedFromSameParentAreIndependent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewHandler(&buf, &Options{
		Level:       slog.LevelInfo,
		TimeFormat:  "15:04:05",
		SrcFileMode: Nop,
		NoColor:     true,
	}).WithAttrs([]slog.Attr{slog.String("stage", "recognize")})

	a := parent.WithAttrs([]slog.Attr{slog.String("segment", "0")})
	b := parent.WithAttrs([]slog.Attr{slog.String("segment", "1")})

	slog.New(a).Info("sending")
	first := buf.String()
	buf.Reset()
	slog.New(b).Info("sending")
	second := buf.String()

	if !strings.Contains(first, "segment=0") || strings.Contains(first, "segment=1") {
		t.Errorf("first handler carries wrong attrs: %q", first)
	}
	if !strings.Contains(second, "segment=1") || strings.Contains(second, "segment=0") {
		t.Errorf("second handler carries wrong attrs: %q", second)
	}
	for _, out := range []string{first, second} {
		if !strings.Contains(out, "stage=recognize") {
			t.Errorf("parent attr lost: %q", out)
		}
	}
}

func TestErrAttr(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelInfo)

	log.Error("stage failed", Err(errors.New("boom")))

	if !strings.Contains(buf.String(), "err=boom") {
		t.Errorf("output missing err attribute: %q", buf.String())
	}
}

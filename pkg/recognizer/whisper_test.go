package recognizer

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestWhisperTranscribeMissingFileIsAnError(t *testing.T) {
	c := NewWhisperClient("test-token", "en")

	start := time.Now()
	outcome, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected error for unreadable audio file, got outcome %+v", outcome)
	}
	if outcome.Status != "" {
		t.Errorf("local failure produced a service verdict: %+v", outcome)
	}
	if elapsed > 10*time.Second {
		t.Errorf("local failure spent %v in the retry window", elapsed)
	}
}

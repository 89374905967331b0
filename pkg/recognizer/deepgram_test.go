package recognizer

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDeepgramTranscribeMissingFileIsAnError(t *testing.T) {
	c := NewDeepgramClient("test-key", "en")

	outcome, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatalf("expected error for unreadable audio file, got outcome %+v", outcome)
	}
	if outcome.Status != "" {
		t.Errorf("local failure produced a service verdict: %+v", outcome)
	}
}

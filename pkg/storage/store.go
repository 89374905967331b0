package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/mediascribe/pkg/domain"
)

const DefaultDir = "transcriptions"

type fileStore struct {
	dir string
}

func NewFileStore(dir string) *fileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &fileStore{dir: dir}
}

// Save writes one JSON document per record into the store directory.
// The name carries a UTC timestamp down to the second plus a short
// random suffix, so concurrent runs landing in the same second never
// collide.
func (s *fileStore) Save(ctx context.Context, record *domain.TranscriptionRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating store dir: %w", err)
	}

	name := fmt.Sprintf("transcription_%s_%s.json",
		time.Now().UTC().Format("20060102150405"),
		uuid.NewString()[:8],
	)
	path := filepath.Join(s.dir, name)

	data, err := marshalRecord(record)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved", "path", path)

	return path, nil
}

// marshalRecord keeps the stored document byte-for-byte faithful to
// the record text: no HTML escaping, human-readable indentation.
func marshalRecord(record *domain.TranscriptionRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return buf.Bytes(), nil
}

// Load parses a stored document back into a record. A truncated or
// hand-damaged file surfaces as a parse error, not as silently empty
// fields.
func Load(path string) (*domain.TranscriptionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	var record domain.TranscriptionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return &record, nil
}

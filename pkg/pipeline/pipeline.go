package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dskvich/mediascribe/pkg/domain"
	"github.com/dskvich/mediascribe/pkg/logger"
	"github.com/dskvich/mediascribe/pkg/scratch"
)

type MediaFetcher interface {
	Fetch(ctx context.Context, sourceURL, destDir string) (*domain.FetchResult, error)
}

type AudioNormalizer interface {
	Normalize(ctx context.Context, mediaPath string) (string, error)
}

type SpeechRecognizer interface {
	Recognize(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error)
}

type RecordStore interface {
	Save(ctx context.Context, record *domain.TranscriptionRecord) (string, error)
}

// Timeouts are per-stage deadlines. Zero disables the deadline for
// that stage.
type Timeouts struct {
	Fetch     time.Duration
	Normalize time.Duration
	Recognize time.Duration
	Save      time.Duration
}

type RunResult struct {
	Outcome    domain.RecognitionOutcome
	Record     *domain.TranscriptionRecord
	StoredPath string
}

type pipeline struct {
	fetcher    MediaFetcher
	normalizer AudioNormalizer
	recognizer SpeechRecognizer
	store      RecordStore
	timeouts   Timeouts
}

func New(
	fetcher MediaFetcher,
	normalizer AudioNormalizer,
	recognizer SpeechRecognizer,
	store RecordStore,
	timeouts Timeouts,
) *pipeline {
	return &pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		recognizer: recognizer,
		store:      store,
		timeouts:   timeouts,
	}
}

// Run takes one source URL through fetch, normalize, recognize and
// persist. Every intermediate file lives in a per-run scratch
// directory that is removed on all exit paths. A NoSpeech verdict is
// not a failure: it persists a marker record with an empty transcript.
// Failures come back as stage-typed errors.
func (p *pipeline) Run(ctx context.Context, sourceURL string) (*RunResult, error) {
	ctx = logger.ContextWithRunID(ctx, uuid.NewString()[:8])

	slog.InfoContext(ctx, "Run started", "url", sourceURL)

	dir, err := scratch.NewDir()
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}
	defer func() {
		if err := dir.Remove(); err != nil {
			slog.ErrorContext(ctx, "Scratch cleanup failed", "dir", dir.Path(), logger.Err(err))
		}
	}()

	fetchCtx, cancel := withTimeout(ctx, p.timeouts.Fetch)
	fetched, err := p.fetcher.Fetch(fetchCtx, sourceURL, dir.Path())
	cancel()
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}

	normCtx, cancel := withTimeout(ctx, p.timeouts.Normalize)
	wavPath, err := p.normalizer.Normalize(normCtx, fetched.MediaPath)
	cancel()
	if err != nil {
		return nil, &domain.TranscodeError{Err: err}
	}

	recCtx, cancel := withTimeout(ctx, p.timeouts.Recognize)
	outcome, err := p.recognizer.Recognize(recCtx, wavPath)
	cancel()
	if err != nil {
		return nil, &domain.RecognitionError{Err: err}
	}
	if outcome.Status == domain.RecognitionStatusFailure {
		return nil, &domain.RecognitionError{Err: errors.New(outcome.Reason)}
	}

	record := buildRecord(fetched, outcome)

	saveCtx, cancel := withTimeout(ctx, p.timeouts.Save)
	storedPath, err := p.store.Save(saveCtx, record)
	cancel()
	if err != nil {
		return nil, &domain.StorageError{Err: err}
	}

	slog.InfoContext(ctx, "Run finished", "outcome", string(outcome.Status), "storedPath", storedPath)

	return &RunResult{Outcome: outcome, Record: record, StoredPath: storedPath}, nil
}

func buildRecord(fetched *domain.FetchResult, outcome domain.RecognitionOutcome) *domain.TranscriptionRecord {
	return &domain.TranscriptionRecord{
		SourceURL:     fetched.SourceURL,
		Text:          outcome.Text,
		TranscribedAt: time.Now().UTC().Format(time.RFC3339),
		SourceDate:    fetched.SourceDate,
		DurationLabel: fetched.DurationLabel,
		Language:      fetched.Language,
		Title:         fetched.Title,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

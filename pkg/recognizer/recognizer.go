package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dskvich/mediascribe/pkg/domain"
	"github.com/dskvich/mediascribe/pkg/logger"
)

const (
	ProviderAzure    = "azure"
	ProviderWhisper  = "whisper"
	ProviderDeepgram = "deepgram"
)

// Provider judges one bounded audio segment. The error return is for
// local failures only; the service verdict, including failure to get
// one, travels in the outcome.
type Provider interface {
	Transcribe(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error)
}

type chunkedRecognizer struct {
	provider       Provider
	segmentLength  time.Duration
	segmentOverlap time.Duration
}

// NewChunkedRecognizer wraps a provider with segmentation for audio
// longer than one service request allows. Segments overlap slightly;
// the duplicated words at each boundary are removed when the ordered
// per-segment texts are stitched back together.
func NewChunkedRecognizer(provider Provider, segmentLength, segmentOverlap time.Duration) *chunkedRecognizer {
	return &chunkedRecognizer{
		provider:       provider,
		segmentLength:  segmentLength,
		segmentOverlap: segmentOverlap,
	}
}

// Recognize transcribes the WAV file at wavPath. The file and any
// segment files derived from it are deleted before Recognize returns,
// whatever the outcome.
func (r *chunkedRecognizer) Recognize(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error) {
	slog.InfoContext(ctx, "Recognizing speech...", "wavPath", wavPath)

	segments := []string{wavPath}
	defer func() {
		for _, path := range segments {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				slog.WarnContext(ctx, "Failed to remove audio file", "path", path, logger.Err(err))
			}
		}
	}()

	duration, err := wavDuration(wavPath)
	if err != nil {
		return domain.RecognitionOutcome{}, fmt.Errorf("probing audio duration: %w", err)
	}

	if duration > r.segmentLength {
		segmentPaths, err := splitWAV(wavPath, r.segmentLength, r.segmentOverlap)
		if err != nil {
			return domain.RecognitionOutcome{}, fmt.Errorf("splitting audio: %w", err)
		}
		segments = append(segments, segmentPaths...)

		slog.InfoContext(ctx, "Audio split into segments", "duration", duration, "segments", len(segmentPaths))

		return r.recognizeSegments(ctx, segmentPaths)
	}

	outcome, err := r.provider.Transcribe(ctx, wavPath)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}

	logOutcome(ctx, outcome)

	return outcome, nil
}

func (r *chunkedRecognizer) recognizeSegments(ctx context.Context, segmentPaths []string) (domain.RecognitionOutcome, error) {
	texts := make([]string, 0, len(segmentPaths))
	recognized := false

	for i, path := range segmentPaths {
		outcome, err := r.provider.Transcribe(ctx, path)
		if err != nil {
			return domain.RecognitionOutcome{}, fmt.Errorf("transcribing segment %d: %w", i, err)
		}

		switch outcome.Status {
		case domain.RecognitionStatusRecognized:
			recognized = true
			texts = append(texts, outcome.Text)
		case domain.RecognitionStatusNoSpeech:
			// A silent segment between spoken ones contributes nothing.
		case domain.RecognitionStatusFailure:
			return outcome, nil
		}
	}

	if !recognized {
		outcome := domain.NoSpeech()
		logOutcome(ctx, outcome)
		return outcome, nil
	}

	outcome := domain.Recognized(stitchTranscripts(texts))
	logOutcome(ctx, outcome)
	return outcome, nil
}

func logOutcome(ctx context.Context, outcome domain.RecognitionOutcome) {
	switch outcome.Status {
	case domain.RecognitionStatusRecognized:
		slog.InfoContext(ctx, "Recognition successful", "chars", len(outcome.Text))
	case domain.RecognitionStatusNoSpeech:
		slog.InfoContext(ctx, "No speech detected")
	case domain.RecognitionStatusFailure:
		slog.WarnContext(ctx, "Recognition service failed", "reason", outcome.Reason)
	}
}

// ProviderConfig carries the provider selection and every credential a
// backend might need. Which fields are required depends on the chosen
// provider and is validated at startup, not here.
type ProviderConfig struct {
	Provider string
	Language string

	AzureKey    string
	AzureRegion string

	OpenAIKey   string
	DeepgramKey string
}

// NewProvider selects a speech-to-text backend by name. The zero value
// selects azure.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderAzure:
		return NewAzureClient(cfg.AzureKey, cfg.AzureRegion, cfg.Language), nil
	case ProviderWhisper:
		return NewWhisperClient(cfg.OpenAIKey, cfg.Language), nil
	case ProviderDeepgram:
		return NewDeepgramClient(cfg.DeepgramKey, cfg.Language), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

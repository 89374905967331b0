package recognizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/mediascribe/pkg/domain"
)

// blankAudioMarker is what whisper emits for audio without speech.
const blankAudioMarker = "[BLANK_AUDIO]"

type whisperClient struct {
	api      *openai.Client
	language string
}

func NewWhisperClient(token, language string) *whisperClient {
	return &whisperClient{
		api:      openai.NewClient(token),
		language: language,
	}
}

// Transcribe submits the WAV file to the transcription API. Reaching
// or reading the audio file is a local failure reported on the error
// return; only service-side trouble becomes a ServiceFailure verdict.
func (c *whisperClient) Transcribe(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error) {
	if _, err := os.Stat(wavPath); err != nil {
		return domain.RecognitionOutcome{}, fmt.Errorf("reading audio file: %w", err)
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: wavPath,
		Language: c.language,
	}

	var text string
	op := func() error {
		resp, err := c.api.CreateTranscription(ctx, req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
					apiErr.HTTPStatusCode != 429 {
					return backoff.Permanent(err)
				}
				return err
			}
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				return backoff.Permanent(&localError{fmt.Errorf("reading audio file: %w", err)})
			}
			return err
		}
		text = resp.Text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryTime

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		var lerr *localError
		if errors.As(err, &lerr) {
			return domain.RecognitionOutcome{}, lerr.err
		}
		return domain.ServiceFailure(err.Error()), nil
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, blankAudioMarker, ""))
	if text == "" {
		return domain.NoSpeech(), nil
	}
	return domain.Recognized(text), nil
}

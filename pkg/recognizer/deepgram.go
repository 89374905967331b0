package recognizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/dskvich/mediascribe/pkg/domain"
)

type deepgramClient struct {
	api      *listenv1rest.Client
	language string
}

func NewDeepgramClient(apiKey, language string) *deepgramClient {
	c := listen.NewREST(apiKey, &interfaces.ClientOptions{})
	return &deepgramClient{
		api:      listenv1rest.New(c),
		language: language,
	}
}

// Transcribe submits the WAV file for prerecorded transcription. An
// unreadable audio file is a local failure on the error return, not a
// service verdict.
func (c *deepgramClient) Transcribe(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error) {
	if _, err := os.Stat(wavPath); err != nil {
		return domain.RecognitionOutcome{}, fmt.Errorf("reading audio file: %w", err)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		SmartFormat: true,
		Language:    c.language,
	}

	res, err := c.api.FromFile(ctx, wavPath, options)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return domain.RecognitionOutcome{}, fmt.Errorf("reading audio file: %w", err)
		}
		return domain.ServiceFailure(err.Error()), nil
	}

	if len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return domain.NoSpeech(), nil
	}

	text := strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript)
	if text == "" {
		return domain.NoSpeech(), nil
	}
	return domain.Recognized(text), nil
}

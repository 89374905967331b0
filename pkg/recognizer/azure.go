package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dskvich/mediascribe/pkg/domain"
)

// maxRetryTime bounds the retry window for transient service errors.
const maxRetryTime = 2 * time.Minute

type azureClient struct {
	key      string
	region   string
	language string
	endpoint string // derived from region unless overridden in tests
	hc       *http.Client
}

func NewAzureClient(key, region, language string) *azureClient {
	if language == "" {
		language = "en-US"
	}
	return &azureClient{
		key:      key,
		region:   region,
		language: language,
		hc:       &http.Client{},
	}
}

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// localError marks failures that happened before the service was
// reached, so Transcribe can report them as errors instead of folding
// them into a service verdict.
type localError struct {
	err error
}

func (e *localError) Error() string { return e.err.Error() }

func (e *localError) Unwrap() error { return e.err }

// Transcribe submits the WAV file to the short-audio recognition
// endpoint. Network errors, 429 and 5xx responses are retried with
// exponential backoff; a definitive service verdict is never retried.
func (c *azureClient) Transcribe(ctx context.Context, wavPath string) (domain.RecognitionOutcome, error) {
	var res azureResponse

	op := func() error {
		r, err := c.recognizeOnce(ctx, wavPath)
		if err != nil {
			return err
		}
		res = r
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

	return mapAzureStatus(res), nil
}

func (c *azureClient) recognizeOnce(ctx context.Context, wavPath string) (azureResponse, error) {
	var res azureResponse

	f, err := os.Open(wavPath)
	if err != nil {
		return res, backoff.Permanent(&localError{fmt.Errorf("opening audio file: %w", err)})
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return res, backoff.Permanent(&localError{fmt.Errorf("reading audio file size: %w", err)})
	}

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", c.region)
	}
	endpoint += "?language=" + url.QueryEscape(c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return res, backoff.Permanent(&localError{fmt.Errorf("creating HTTP request: %w", err)})
	}
	req.ContentLength = fi.Size()
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return res, fmt.Errorf("executing HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return res, fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, string(bodyBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return res, backoff.Permanent(fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, string(bodyBytes)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, backoff.Permanent(fmt.Errorf("decoding response data: %v", err))
	}

	return res, nil
}

// mapAzureStatus translates the service's RecognitionStatus into an
// outcome. The enumeration is closed: a status this build does not
// know is a service failure, never a silent success.
func mapAzureStatus(res azureResponse) domain.RecognitionOutcome {
	switch res.RecognitionStatus {
	case "Success":
		if res.DisplayText == "" {
			return domain.NoSpeech()
		}
		return domain.Recognized(res.DisplayText)
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return domain.NoSpeech()
	case "Error":
		return domain.ServiceFailure("service reported an error processing the audio")
	default:
		return domain.ServiceFailure(fmt.Sprintf("unknown recognition status %q", res.RecognitionStatus))
	}
}

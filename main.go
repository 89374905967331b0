package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dskvich/mediascribe/pkg/converter"
	"github.com/dskvich/mediascribe/pkg/domain"
	"github.com/dskvich/mediascribe/pkg/fetcher"
	"github.com/dskvich/mediascribe/pkg/logger"
	"github.com/dskvich/mediascribe/pkg/pipeline"
	"github.com/dskvich/mediascribe/pkg/recognizer"
	"github.com/dskvich/mediascribe/pkg/storage"
)

// Exit codes keep failure stages distinguishable for callers.
const (
	exitOK          = 0
	exitFetch       = 1 // fetch or transcode failure
	exitRecognition = 2
	exitStorage     = 3
	exitConfig      = 4   // configuration or usage error
	exitInterrupted = 130 // 128+SIGINT, a run cut short by signal or deadline
)

type Config struct {
	AzureSpeechKey string `env:"AZURE_SPEECH_KEY"`
	AzureRegion    string `env:"AZURE_REGION"`
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	DeepgramKey    string `env:"DEEPGRAM_API_KEY"`

	Provider  string `env:"MEDIASCRIBE_PROVIDER" envDefault:"azure"`
	Extractor string `env:"MEDIASCRIBE_EXTRACTOR" envDefault:"ytdlp"`
	OutputDir string `env:"MEDIASCRIBE_DIR" envDefault:"transcriptions"`
	Language  string `env:"MEDIASCRIBE_LANGUAGE" envDefault:"en-US"`

	FetchTimeout     time.Duration `env:"MEDIASCRIBE_FETCH_TIMEOUT" envDefault:"10m"`
	NormalizeTimeout time.Duration `env:"MEDIASCRIBE_NORMALIZE_TIMEOUT" envDefault:"5m"`
	RecognizeTimeout time.Duration `env:"MEDIASCRIBE_RECOGNIZE_TIMEOUT" envDefault:"30m"`
	SaveTimeout      time.Duration `env:"MEDIASCRIBE_SAVE_TIMEOUT" envDefault:"1m"`

	SegmentLength  time.Duration `env:"MEDIASCRIBE_SEGMENT_LENGTH" envDefault:"55s"`
	SegmentOverlap time.Duration `env:"MEDIASCRIBE_SEGMENT_OVERLAP" envDefault:"2s"`
}

// Validate checks the credentials the selected provider needs. Missing
// secrets are a startup failure, never a per-run one.
func (c *Config) Validate() error {
	switch c.Provider {
	case recognizer.ProviderAzure:
		if c.AzureSpeechKey == "" || c.AzureRegion == "" {
			return errors.New("AZURE_SPEECH_KEY and AZURE_REGION must be set for the azure provider")
		}
	case recognizer.ProviderWhisper:
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY must be set for the whisper provider")
		}
	case recognizer.ProviderDeepgram:
		if c.DeepgramKey == "" {
			return errors.New("DEEPGRAM_API_KEY must be set for the deepgram provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.SegmentLength <= c.SegmentOverlap {
		return fmt.Errorf("segment length %v must exceed overlap %v", c.SegmentLength, c.SegmentOverlap)
	}
	return nil
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	batchFile := flag.String("batch", "", "file with source URLs, one per line, or an .xlsx sheet")
	concurrency := flag.Int("concurrency", 1, "number of pipeline runs in flight")
	provider := flag.String("provider", "", "speech provider: azure, whisper or deepgram")
	extractor := flag.String("extractor", "", "media extractor: ytdlp or native")
	outDir := flag.String("out", "", "directory for transcription records")
	quiet := flag.Bool("quiet", false, "log warnings and errors only")
	flag.Parse()

	opts := *logger.DefaultOptions
	if *quiet {
		opts.Level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &opts)))

	cfg, err := loadConfig(*provider, *extractor, *outDir)
	if err != nil {
		slog.Error("Invalid configuration", logger.Err(err))
		return exitConfig
	}

	sourceURLs := flag.Args()
	if *batchFile != "" {
		urls, err := pipeline.LoadURLs(*batchFile)
		if err != nil {
			slog.Error("Loading batch file failed", logger.Err(err))
			return exitConfig
		}
		sourceURLs = append(sourceURLs, urls...)
	}
	if len(sourceURLs) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source-url> [<source-url>...]\n", os.Args[0])
		flag.PrintDefaults()
		return exitConfig
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("Shutting down due to signal", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	p, err := setupPipeline(cfg)
	if err != nil {
		slog.Error("Invalid configuration", logger.Err(err))
		return exitConfig
	}

	results, _ := pipeline.NewBatchRunner(p, *concurrency).Run(ctx, sourceURLs)

	code := exitOK
	for _, r := range results {
		code = max(code, report(r))
	}
	return code
}

func loadConfig(provider, extractor, outDir string) (*Config, error) {
	// Absent .env is fine; the environment may carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, &domain.ConfigError{Err: fmt.Errorf("loading .env: %w", err)}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, &domain.ConfigError{Err: fmt.Errorf("parsing env config: %w", err)}
	}

	// Flags override the environment.
	if provider != "" {
		cfg.Provider = provider
	}
	if extractor != "" {
		cfg.Extractor = extractor
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, &domain.ConfigError{Err: err}
	}
	return &cfg, nil
}

func setupPipeline(cfg *Config) (pipeline.Runner, error) {
	mediaFetcher, err := fetcher.New(cfg.Extractor)
	if err != nil {
		return nil, &domain.ConfigError{Err: err}
	}

	provider, err := recognizer.NewProvider(recognizer.ProviderConfig{
		Provider:    cfg.Provider,
		Language:    cfg.Language,
		AzureKey:    cfg.AzureSpeechKey,
		AzureRegion: cfg.AzureRegion,
		OpenAIKey:   cfg.OpenAIKey,
		DeepgramKey: cfg.DeepgramKey,
	})
	if err != nil {
		return nil, &domain.ConfigError{Err: err}
	}

	return pipeline.New(
		mediaFetcher,
		converter.NewWavNormalizer(),
		recognizer.NewChunkedRecognizer(provider, cfg.SegmentLength, cfg.SegmentOverlap),
		storage.NewFileStore(cfg.OutputDir),
		pipeline.Timeouts{
			Fetch:     cfg.FetchTimeout,
			Normalize: cfg.NormalizeTimeout,
			Recognize: cfg.RecognizeTimeout,
			Save:      cfg.SaveTimeout,
		},
	), nil
}

// report prints one run's outcome and maps it to an exit code. With
// several URLs the highest code wins.
func report(r pipeline.URLResult) int {
	if r.Err != nil {
		slog.Error("Transcription failed", "url", r.SourceURL, logger.Err(r.Err))
		return exitCodeFor(r.Err)
	}

	switch r.Result.Outcome.Status {
	case domain.RecognitionStatusNoSpeech:
		slog.Warn("No speech detected", "url", r.SourceURL, "storedPath", r.Result.StoredPath)
	default:
		fmt.Println(r.Result.Record.Text)
		slog.Info("Transcription stored", "url", r.SourceURL, "storedPath", r.Result.StoredPath)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	var (
		fetchErr       *domain.FetchError
		transcodeErr   *domain.TranscodeError
		recognitionErr *domain.RecognitionError
		storageErr     *domain.StorageError
		configErr      *domain.ConfigError
	)
	switch {
	case errors.As(err, &configErr):
		return exitConfig
	case errors.As(err, &fetchErr), errors.As(err, &transcodeErr):
		return exitFetch
	case errors.As(err, &recognitionErr):
		return exitRecognition
	case errors.As(err, &storageErr):
		return exitStorage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// A signal arrived before the run reached any stage.
		return exitInterrupted
	default:
		return exitFetch
	}
}

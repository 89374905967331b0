package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"

	"github.com/dskvich/mediascribe/pkg/logger"
)

type Runner interface {
	Run(ctx context.Context, sourceURL string) (*RunResult, error)
}

// URLResult pairs one source URL with the way its run ended.
type URLResult struct {
	SourceURL string
	Result    *RunResult
	Err       error
}

type batchRunner struct {
	runner      Runner
	concurrency int
}

// NewBatchRunner runs one pipeline run per source URL on a bounded
// pool of workers. Concurrency 1 keeps the strictly sequential
// behavior of a single run; runs never share scratch files, so higher
// values are safe.
func NewBatchRunner(runner Runner, concurrency int) *batchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &batchRunner{
		runner:      runner,
		concurrency: concurrency,
	}
}

// Run processes every URL and reports per-URL results in input order.
// A failed URL does not stop the batch; the returned error aggregates
// every failure so the caller still sees each one.
func (b *batchRunner) Run(ctx context.Context, sourceURLs []string) ([]URLResult, error) {
	results := make([]URLResult, len(sourceURLs))

	type job struct {
		index     int
		sourceURL string
	}

	jobs := make(chan job)
	var wg sync.WaitGroup

	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := b.runner.Run(ctx, j.sourceURL)
				if err != nil {
					slog.ErrorContext(ctx, "Run failed", "url", j.sourceURL, logger.Err(err))
				}
				results[j.index] = URLResult{SourceURL: j.sourceURL, Result: res, Err: err}
			}
		}()
	}

dispatch:
	for i, u := range sourceURLs {
		select {
		case jobs <- job{index: i, sourceURL: u}:
		case <-ctx.Done():
			// Mark the URLs the pool never picked up.
			for k := i; k < len(sourceURLs); k++ {
				results[k] = URLResult{SourceURL: sourceURLs[k], Err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	var errs *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.SourceURL, r.Err))
		}
	}
	return results, errs.ErrorOrNil()
}

// LoadURLs reads a batch source file: an .xlsx sheet (first column,
// header row skipped when it is not a URL) or a plain text file with
// one URL per line, blank lines and #-comments ignored.
func LoadURLs(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadURLsXLSX(path)
	}
	return loadURLsText(path)
}

func loadURLsText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no source URLs in %s", path)
	}
	return urls, nil
}

func loadURLsXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading batch sheet: %w", err)
	}

	var urls []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		if len(urls) == 0 && !isURL(cell) {
			// Header row.
			continue
		}
		urls = append(urls, cell)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no source URLs in %s", path)
	}
	return urls, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

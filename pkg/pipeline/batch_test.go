package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dskvich/mediascribe/pkg/domain"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]error
}

func (r *fakeRunner) Run(ctx context.Context, sourceURL string) (*RunResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, sourceURL)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := r.failing[sourceURL]; ok {
		return nil, err
	}
	return &RunResult{
		Outcome:    domain.Recognized("text for " + sourceURL),
		StoredPath: "transcriptions/" + filepath.Base(sourceURL) + ".json",
	}, nil
}

func TestBatchRunAllSucceed(t *testing.T) {
	urls := []string{
		"https://example.com/v/1",
		"https://example.com/v/2",
		"https://example.com/v/3",
	}
	runner := &fakeRunner{}

	results, err := NewBatchRunner(runner, 2).Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != len(urls) {
		t.Fatalf("got %d results, expected %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.SourceURL != urls[i] {
			t.Errorf("results[%d].SourceURL = %q, expected %q (input order)", i, r.SourceURL, urls[i])
		}
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
		}
		if r.Result == nil || r.Result.StoredPath == "" {
			t.Errorf("results[%d] has no stored path", i)
		}
	}
	if len(runner.calls) != len(urls) {
		t.Errorf("runner called %d times, expected %d", len(runner.calls), len(urls))
	}
}

func TestBatchRunAggregatesFailures(t *testing.T) {
	urls := []string{
		"https://example.com/v/ok",
		"https://example.com/v/bad",
		"https://example.com/v/worse",
	}
	runner := &fakeRunner{failing: map[string]error{
		"https://example.com/v/bad":   errors.New("bad"),
		"https://example.com/v/worse": errors.New("worse"),
	}}

	results, err := NewBatchRunner(runner, 1).Run(context.Background(), urls)
	if err == nil {
		t.Fatal("expected aggregated error")
	}

	if results[0].Err != nil {
		t.Errorf("healthy URL reported error: %v", results[0].Err)
	}
	if results[1].Err == nil || results[2].Err == nil {
		t.Error("failed URLs should carry their errors")
	}
	for _, fragment := range []string{"bad", "worse"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("aggregated error %q should mention %q", err, fragment)
		}
	}
}

func TestBatchRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"https://example.com/v/1", "https://example.com/v/2"}
	results, err := NewBatchRunner(&fakeRunner{}, 1).Run(ctx, urls)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	for i, r := range results {
		if r.Err == nil && r.Result == nil {
			t.Errorf("results[%d] has neither result nor error", i)
		}
	}
}

func TestLoadURLsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# evening batch
https://example.com/v/1

https://example.com/v/2
  # indented comment
https://example.com/v/3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := LoadURLs(path)
	if err != nil {
		t.Fatalf("LoadURLs: %v", err)
	}

	expected := []string{
		"https://example.com/v/1",
		"https://example.com/v/2",
		"https://example.com/v/3",
	}
	if len(urls) != len(expected) {
		t.Fatalf("got %d urls: %v", len(urls), urls)
	}
	for i := range expected {
		if urls[i] != expected[i] {
			t.Errorf("urls[%d] = %q, expected %q", i, urls[i], expected[i])
		}
	}
}

func TestLoadURLsTextEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("# nothing here\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadURLs(path); err == nil {
		t.Error("expected error for a file with no URLs")
	}
}

func TestLoadURLsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")

	f := excelize.NewFile()
	cells := map[string]string{
		"A1": "Source URL", // header row, skipped
		"B1": "Notes",
		"A2": "https://example.com/v/1",
		"A3": "https://example.com/v/2",
		"A4": "",
	}
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	urls, err := LoadURLs(path)
	if err != nil {
		t.Fatalf("LoadURLs: %v", err)
	}

	expected := []string{"https://example.com/v/1", "https://example.com/v/2"}
	if len(urls) != len(expected) {
		t.Fatalf("got %d urls: %v", len(urls), urls)
	}
	for i := range expected {
		if urls[i] != expected[i] {
			t.Errorf("urls[%d] = %q, expected %q", i, urls[i], expected[i])
		}
	}
}

package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dskvich/mediascribe/pkg/domain"
)

type ytdlpFetcher struct{}

func NewYtdlpFetcher() *ytdlpFetcher {
	return &ytdlpFetcher{}
}

// ytdlpMetadata is the subset of the yt-dlp info JSON the pipeline
// cares about.
type ytdlpMetadata struct {
	Title          string `json:"title"`
	UploadDate     string `json:"upload_date"`
	DurationString string `json:"duration_string"`
	Language       string `json:"language"`
	WebpageURL     string `json:"webpage_url"`
	Filename       string `json:"_filename"`
}

// Fetch downloads the best audio-only stream for sourceURL into
// destDir via the yt-dlp binary and reads source metadata from its
// info JSON. The output name is a fixed template under destDir, so the
// media path never depends on the video title.
func (f *ytdlpFetcher) Fetch(ctx context.Context, sourceURL, destDir string) (*domain.FetchResult, error) {
	slog.InfoContext(ctx, "Fetching media...", "url", sourceURL)

	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, fmt.Errorf("looking for `yt-dlp`: %w", err)
	}

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-progress",
		"--print-json",
		"-o", filepath.Join(destDir, "media.%(ext)s"),
		sourceURL,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("running `yt-dlp`: %w: %s", err, lastLine(exitErr.Stderr))
		}
		return nil, fmt.Errorf("running `yt-dlp`: %w", err)
	}

	meta, err := parseYtdlpMetadata(out)
	if err != nil {
		return nil, fmt.Errorf("parsing `yt-dlp` metadata: %w", err)
	}

	mediaPath, err := locateMedia(destDir, meta.Filename)
	if err != nil {
		return nil, err
	}

	result := &domain.FetchResult{
		SourceURL:     sourceURL,
		MediaPath:     mediaPath,
		Title:         meta.Title,
		SourceDate:    normalizeUploadDate(ctx, meta.UploadDate),
		DurationLabel: meta.DurationString,
		Language:      meta.Language,
	}
	if meta.WebpageURL != "" {
		result.SourceURL = meta.WebpageURL
	}

	slog.InfoContext(ctx, "Fetch successful", "url", result.SourceURL, "mediaPath", mediaPath)

	return result, nil
}

func parseYtdlpMetadata(out []byte) (*ytdlpMetadata, error) {
	// With --no-playlist there is a single JSON object on stdout.
	var meta ytdlpMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// locateMedia trusts the _filename reported by yt-dlp when it exists
// and falls back to globbing the fixed output template otherwise.
func locateMedia(destDir, reported string) (string, error) {
	if reported != "" {
		if _, err := os.Stat(reported); err == nil {
			return reported, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(destDir, "media.*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("downloaded media not found in %s", destDir)
	}
	return matches[0], nil
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/dskvich/mediascribe/pkg/domain"
)

type youtubeFetcher struct {
	client youtube.Client
}

func NewYouTubeFetcher() *youtubeFetcher {
	return &youtubeFetcher{}
}

// Fetch resolves sourceURL with the YouTube client library, picks the
// best audio-only format and streams it into destDir. No external
// binary is involved, at the price of supporting YouTube only.
func (f *youtubeFetcher) Fetch(ctx context.Context, sourceURL, destDir string) (*domain.FetchResult, error) {
	slog.InfoContext(ctx, "Fetching media...", "url", sourceURL, "extractor", ExtractorNative)

	video, err := f.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("resolving video: %w", err)
	}

	formats := video.Formats.Type("audio")
	if len(formats) == 0 {
		return nil, fmt.Errorf("no audio-only formats for %q", sourceURL)
	}
	formats.Sort()
	format := &formats[0]

	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("opening audio stream: %w", err)
	}
	defer stream.Close()

	mediaPath := filepath.Join(destDir, "media"+extensionForMime(format.MimeType))
	out, err := os.Create(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("creating media file: %w", err)
	}
	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		return nil, fmt.Errorf("downloading audio stream: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("closing media file: %w", err)
	}

	result := &domain.FetchResult{
		SourceURL:     sourceURL,
		MediaPath:     mediaPath,
		Title:         video.Title,
		DurationLabel: formatDuration(video.Duration),
	}
	if !video.PublishDate.IsZero() {
		result.SourceDate = video.PublishDate.Format("2006-01-02")
	}

	slog.InfoContext(ctx, "Fetch successful", "url", sourceURL, "mediaPath", mediaPath)

	return result, nil
}

func extensionForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	default:
		return ".bin"
	}
}

// formatDuration renders a duration the way extractors label it:
// M:SS below an hour, H:MM:SS above.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

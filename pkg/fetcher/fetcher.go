package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dskvich/mediascribe/pkg/dateutil"
	"github.com/dskvich/mediascribe/pkg/domain"
)

const (
	ExtractorYtdlp  = "ytdlp"
	ExtractorNative = "native"
)

// Fetcher downloads the media behind a source URL into destDir and
// reports the downloaded file together with whatever source metadata
// the extractor could recover.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, destDir string) (*domain.FetchResult, error)
}

// New selects an extractor backend by name. The zero value selects the
// default yt-dlp backend.
func New(extractor string) (Fetcher, error) {
	switch extractor {
	case "", ExtractorYtdlp:
		return NewYtdlpFetcher(), nil
	case ExtractorNative:
		return NewYouTubeFetcher(), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", extractor)
	}
}

// normalizeUploadDate converts an extractor-reported date to ISO-8601.
// Metadata extraction is opportunistic: a date the parser does not
// understand degrades to absent instead of failing the fetch.
func normalizeUploadDate(ctx context.Context, raw string) string {
	if raw == "" {
		return ""
	}
	iso, err := dateutil.ToISODate(raw)
	if err != nil {
		slog.DebugContext(ctx, "Dropping unparseable upload date", "date", raw)
		return ""
	}
	return iso
}

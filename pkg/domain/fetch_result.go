package domain

// FetchResult describes a downloaded media file and the source metadata
// that could be extracted alongside it. MediaPath is owned by the run:
// the normalizer consumes and deletes it. All metadata fields except
// SourceURL are optional and empty when unknown.
type FetchResult struct {
	SourceURL     string
	MediaPath     string
	Title         string
	SourceDate    string // ISO-8601 YYYY-MM-DD
	DurationLabel string
	Language      string
}

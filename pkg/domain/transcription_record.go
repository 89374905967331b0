package domain

// TranscriptionRecord is the unit of persistence: one run, one record.
// An empty Text is meaningful and marks a run whose recognizer found
// no speech. Optional fields are omitted from the stored document when
// empty.
type TranscriptionRecord struct {
	SourceURL     string `json:"source_url"`
	Text          string `json:"transcription_text"`
	TranscribedAt string `json:"transcription_date"`
	SourceDate    string `json:"audio_source_date,omitempty"`
	DurationLabel string `json:"duration_string,omitempty"`
	Language      string `json:"language,omitempty"`
	Title         string `json:"title,omitempty"`
}

package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewSelectsBackend(t *testing.T) {
	tests := []struct {
		extractor string
		wantErr   bool
	}{
		{"", false},
		{"ytdlp", false},
		{"native", false},
		{"wget", true},
	}

	for _, test := range tests {
		f, err := New(test.extractor)
		if test.wantErr {
			if err == nil {
				t.Errorf("New(%q) expected error, got %T", test.extractor, f)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) returned error: %v", test.extractor, err)
		}
		if f == nil {
			t.Errorf("New(%q) returned nil fetcher", test.extractor)
		}
	}
}

func TestNormalizeUploadDate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		raw      string
		expected string
	}{
		{"20240214", "2024-02-14"},
		{"2024-02-14", "2024-02-14"},
		{"", ""},
		{"not a date", ""},
	}

	for _, test := range tests {
		if got := normalizeUploadDate(ctx, test.raw); got != test.expected {
			t.Errorf("normalizeUploadDate(%q) = %q, expected %q", test.raw, got, test.expected)
		}
	}
}

func TestParseYtdlpMetadata(t *testing.T) {
	raw := []byte(`{
		"title": "Доклад о птицах",
		"upload_date": "20240214",
		"duration_string": "12:34",
		"language": "ru",
		"webpage_url": "https://www.youtube.com/watch?v=abc123",
		"_filename": "/tmp/run/media.webm",
		"uploader": "ignored"
	}`)

	meta, err := parseYtdlpMetadata(raw)
	if err != nil {
		t.Fatalf("parseYtdlpMetadata: %v", err)
	}

	if meta.Title != "Доклад о птицах" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.UploadDate != "20240214" {
		t.Errorf("UploadDate = %q", meta.UploadDate)
	}
	if meta.DurationString != "12:34" {
		t.Errorf("DurationString = %q", meta.DurationString)
	}
	if meta.Language != "ru" {
		t.Errorf("Language = %q", meta.Language)
	}
	if meta.WebpageURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("WebpageURL = %q", meta.WebpageURL)
	}
	if meta.Filename != "/tmp/run/media.webm" {
		t.Errorf("Filename = %q", meta.Filename)
	}
}

func TestParseYtdlpMetadataRejectsGarbage(t *testing.T) {
	if _, err := parseYtdlpMetadata([]byte("WARNING: not json")); err == nil {
		t.Error("expected error for non-JSON output")
	}
}

func TestYtdlpFetchMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	f := NewYtdlpFetcher()
	_, err := f.Fetch(context.Background(), "https://example.com/v", t.TempDir())
	if err == nil {
		t.Fatal("expected error when yt-dlp is not installed")
	}
	if !strings.Contains(err.Error(), "yt-dlp") {
		t.Errorf("error should name the missing binary: %v", err)
	}
}

func TestExtensionForMime(t *testing.T) {
	tests := []struct {
		mime     string
		expected string
	}{
		{`audio/webm; codecs="opus"`, ".webm"},
		{`audio/mp4; codecs="mp4a.40.2"`, ".m4a"},
		{"application/octet-stream", ".bin"},
	}

	for _, test := range tests {
		if got := extensionForMime(test.mime); got != test.expected {
			t.Errorf("extensionForMime(%q) = %q, expected %q", test.mime, got, test.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, ""},
		{37 * time.Second, "0:37"},
		{3*time.Minute + 7*time.Second, "3:07"},
		{62 * time.Minute, "1:02:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, test := range tests {
		if got := formatDuration(test.d); got != test.expected {
			t.Errorf("formatDuration(%v) = %q, expected %q", test.d, got, test.expected)
		}
	}
}

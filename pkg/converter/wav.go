package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dskvich/mediascribe/pkg/logger"
)

// Recognition services expect 16 kHz mono 16-bit signed PCM.
const (
	targetSampleRate = "16000"
	targetChannels   = "1"
)

type wavNormalizer struct{}

func NewWavNormalizer() *wavNormalizer {
	return &wavNormalizer{}
}

// Normalize transcodes mediaPath into a canonical WAV file next to it
// and deletes the input on success. The output appears atomically: it
// is written under a .part name and renamed only after ffmpeg exits
// cleanly. The -bitexact and metadata stripping flags keep the output
// reproducible for identical inputs.
func (n *wavNormalizer) Normalize(ctx context.Context, mediaPath string) (string, error) {
	slog.InfoContext(ctx, "Normalizing audio...", "inputPath", mediaPath)

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("looking for `ffmpeg`: %w", err)
	}

	outputPath := wavPathFor(mediaPath)
	partPath := outputPath + ".part"

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", mediaPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", targetSampleRate,
		"-ac", targetChannels,
		"-map_metadata", "-1",
		"-bitexact",
		"-f", "wav",
		partPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(partPath)
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return "", fmt.Errorf("running `ffmpeg`: %w: %s", err, msg)
		}
		return "", fmt.Errorf("running `ffmpeg`: %w", err)
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("publishing wav file: %w", err)
	}

	if err := os.Remove(mediaPath); err != nil {
		slog.WarnContext(ctx, "Failed to remove input media file", "inputPath", mediaPath, logger.Err(err))
	}

	slog.InfoContext(ctx, "Normalization successful", "inputPath", mediaPath, "outputPath", outputPath)

	return outputPath, nil
}

// wavPathFor swaps the media extension for .wav, keeping the directory.
// A .wav input still gets a distinct output name so the source is never
// overwritten mid-transcode.
func wavPathFor(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	base := strings.TrimSuffix(mediaPath, ext)
	if strings.EqualFold(ext, ".wav") {
		return base + ".norm.wav"
	}
	return base + ".wav"
}

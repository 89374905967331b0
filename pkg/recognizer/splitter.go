package recognizer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// readBlock is the number of samples pulled from the decoder per
// iteration while splitting.
const readBlock = 32768

// wavDuration reports the playable length of a WAV file.
func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("not a valid wav file: %s", path)
	}

	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("reading wav duration: %w", err)
	}
	return dur, nil
}

// splitWAV cuts a mono PCM WAV into numbered segment files of at most
// segmentLength each, with every segment after the first starting
// overlap before the previous one ended. Segments are written next to
// the source file and returned in playback order.
func splitWAV(wavPath string, segmentLength, overlap time.Duration) ([]string, error) {
	in, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer in.Close()

	d := wav.NewDecoder(in)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %s", wavPath)
	}

	format := d.Format()
	if format.NumChannels != 1 {
		return nil, fmt.Errorf("expected mono audio, got %d channels", format.NumChannels)
	}

	segmentSamples := samplesFor(segmentLength, format.SampleRate)
	overlapSamples := samplesFor(overlap, format.SampleRate)
	if segmentSamples <= overlapSamples {
		return nil, fmt.Errorf("segment length %v must exceed overlap %v", segmentLength, overlap)
	}

	w := &segmentWriter{
		basePath:       strings.TrimSuffix(wavPath, ".wav"),
		format:         format,
		bitDepth:       int(d.BitDepth),
		segmentSamples: segmentSamples,
		overlapSamples: overlapSamples,
	}

	buf := &audio.IntBuffer{Data: make([]int, readBlock), Format: format}
	for {
		n, err := d.PCMBuffer(buf)
		if err != nil {
			w.abort()
			return nil, fmt.Errorf("reading pcm data: %w", err)
		}
		if n == 0 {
			break
		}
		if err := w.append(buf.Data[:n]); err != nil {
			w.abort()
			return nil, err
		}
	}

	paths, err := w.finish()
	if err != nil {
		w.abort()
		return nil, err
	}
	return paths, nil
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}

// segmentWriter spreads an incoming sample stream over numbered
// segment files, carrying the last overlapSamples of each segment into
// the start of the next one.
type segmentWriter struct {
	basePath       string
	format         *audio.Format
	bitDepth       int
	segmentSamples int
	overlapSamples int

	paths   []string
	file    *os.File
	enc     *wav.Encoder
	written int
	tail    []int
}

func (w *segmentWriter) append(samples []int) error {
	for len(samples) > 0 {
		if w.enc == nil {
			if err := w.open(); err != nil {
				return err
			}
		}

		chunk := samples
		if room := w.segmentSamples - w.written; len(chunk) > room {
			chunk = chunk[:room]
		}
		if err := w.write(chunk); err != nil {
			return err
		}
		samples = samples[len(chunk):]

		if w.written == w.segmentSamples {
			if err := w.closeCurrent(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *segmentWriter) open() error {
	path := fmt.Sprintf("%s.seg%03d.wav", w.basePath, len(w.paths))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating segment file: %w", err)
	}
	w.file = f
	w.enc = wav.NewEncoder(f, w.format.SampleRate, w.bitDepth, w.format.NumChannels, 1)
	w.paths = append(w.paths, path)
	w.written = 0

	if len(w.tail) > 0 {
		carry := make([]int, len(w.tail))
		copy(carry, w.tail)
		return w.write(carry)
	}
	return nil
}

func (w *segmentWriter) write(samples []int) error {
	if err := w.enc.Write(&audio.IntBuffer{Data: samples, Format: w.format}); err != nil {
		return fmt.Errorf("writing segment data: %w", err)
	}
	w.written += len(samples)

	w.tail = append(w.tail, samples...)
	if len(w.tail) > w.overlapSamples {
		w.tail = w.tail[len(w.tail)-w.overlapSamples:]
	}
	return nil
}

func (w *segmentWriter) closeCurrent() error {
	if w.enc == nil {
		return nil
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("closing segment encoder: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing segment file: %w", err)
	}
	w.enc = nil
	w.file = nil
	return nil
}

func (w *segmentWriter) finish() ([]string, error) {
	if err := w.closeCurrent(); err != nil {
		return nil, err
	}
	return w.paths, nil
}

func (w *segmentWriter) abort() {
	if w.enc != nil {
		w.enc.Close()
	}
	if w.file != nil {
		w.file.Close()
	}
	for _, path := range w.paths {
		os.Remove(path)
	}
}

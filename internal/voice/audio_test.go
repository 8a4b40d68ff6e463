package voice

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
)

func writeWAV(t *testing.T, samples []int, sampleRate int) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAnalyzeWAV(t *testing.T) {
	samples := make([]int, 16000)
	for i := range samples {
		samples[i] = 16000
	}
	f := writeWAV(t, samples, 16000)

	feats, err := AnalyzeWAV(f)
	if err != nil {
		t.Fatalf("AnalyzeWAV: %v", err)
	}
	if feats.SampleRate != 16000 || feats.Channels != 1 || feats.BitDepth != 16 {
		t.Fatalf("header: %+v", feats)
	}
	if math.Abs(feats.DurationSeconds-1.0) > 1e-9 {
		t.Fatalf("duration: want=1s got=%v", feats.DurationSeconds)
	}
	// Constant half-scale signal: loud and noiseless.
	if feats.SignalDBFS > -6 || feats.SignalDBFS < -7 {
		t.Fatalf("dbfs: want around -6.2 got=%v", feats.SignalDBFS)
	}
	if feats.NoiseLevel != 0 {
		t.Fatalf("noise: want=0 got=%v", feats.NoiseLevel)
	}
	if got := feats.Quality(); got != types.QualityGood {
		t.Fatalf("quality: want=%q got=%q", types.QualityGood, got)
	}
}

func TestAnalyzeWAVCountsPauses(t *testing.T) {
	const rate = 16000
	speech := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = 16000
		}
		return out
	}

	// speech, half-second gap, speech, trailing half-second gap.
	samples := append(speech(rate), make([]int, rate/2)...)
	samples = append(samples, speech(rate)...)
	samples = append(samples, make([]int, rate/2)...)
	f := writeWAV(t, samples, rate)

	feats, err := AnalyzeWAV(f)
	if err != nil {
		t.Fatalf("AnalyzeWAV: %v", err)
	}
	if feats.PauseCount != 2 {
		t.Fatalf("pauses: want=2 got=%d", feats.PauseCount)
	}
	// Two pauses over three seconds of audio.
	if math.Abs(feats.PauseFrequency-40) > 1e-9 {
		t.Fatalf("pause frequency: want=40 got=%v", feats.PauseFrequency)
	}
}

func TestAnalyzeWAVSilence(t *testing.T) {
	f := writeWAV(t, make([]int, 8000), 8000)

	feats, err := AnalyzeWAV(f)
	if err != nil {
		t.Fatalf("AnalyzeWAV: %v", err)
	}
	if !math.IsInf(feats.SignalDBFS, -1) {
		t.Fatalf("dbfs for silence: want=-Inf got=%v", feats.SignalDBFS)
	}
	if got := feats.Quality(); got != types.QualityPoor {
		t.Fatalf("quality for silence: want=%q got=%q", types.QualityPoor, got)
	}
}

func TestAnalyzeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o600); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open garbage: %v", err)
	}
	defer f.Close()

	_, err = AnalyzeWAV(f)
	if err == nil {
		t.Fatalf("AnalyzeWAV: expected error for non-wav input")
	}
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("AnalyzeWAV: want ErrInvalidArgument, got %v", err)
	}
}

func TestQualityNilFeatures(t *testing.T) {
	var feats *AudioFeatures
	if got := feats.Quality(); got != types.QualityUnknown {
		t.Fatalf("nil quality: want=%q got=%q", types.QualityUnknown, got)
	}
}

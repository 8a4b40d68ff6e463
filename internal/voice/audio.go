// Package voice turns a claim recording into the signals the
// underwriting engine consumes: acoustic features from the WAV
// payload, a transcript from the configured engines, and lexical
// signals from the transcript.
package voice

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
)

// noiseWindow bounds how many leading samples feed the background
// noise estimate.
const noiseWindow = 1000

// Pause detection: a run of near-silent frames at least this long
// counts as one pause. The amplitude floor is relative to full scale.
const (
	minPauseSeconds = 0.3
	pauseAmplitude  = 0.02
)

type AudioFeatures struct {
	SampleRate      int
	Channels        int
	BitDepth        int
	DurationSeconds float64
	SignalDBFS      float64
	NoiseLevel      float64
	SampleCount     int
	PauseCount      int

	// PauseFrequency is pauses per minute of audio.
	PauseFrequency float64
}

// Quality buckets the recording from loudness and background noise.
// Silence (no samples) is unknown rather than poor.
func (f *AudioFeatures) Quality() string {
	if f == nil || f.SampleCount == 0 {
		return types.QualityUnknown
	}
	return QualityFor(f.SignalDBFS, f.NoiseLevel)
}

func QualityFor(dbfs, noiseLevel float64) string {
	switch {
	case dbfs > -20 && noiseLevel < 1000:
		return types.QualityGood
	case dbfs > -30 && noiseLevel < 5000:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}

// AnalyzeWAV decodes a RIFF/WAV stream and derives the acoustic
// features used for quality bucketing. Samples are read at their
// native bit depth; loudness is RMS relative to full scale, noise is
// the standard deviation of the leading sample window in raw units.
func AnalyzeWAV(rs io.ReadSeeker) (*AudioFeatures, error) {
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %w", errors.ErrInvalidArgument)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav pcm: %w", err)
	}

	feats := &AudioFeatures{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if feats.SampleRate <= 0 || feats.Channels <= 0 {
		return nil, fmt.Errorf("wav header missing rate or channels: %w", errors.ErrInvalidArgument)
	}

	samples := buf.Data
	feats.SampleCount = len(samples)
	frames := len(samples) / feats.Channels
	feats.DurationSeconds = float64(frames) / float64(feats.SampleRate)

	if len(samples) == 0 {
		feats.SignalDBFS = math.Inf(-1)
		return feats, nil
	}

	fullScale := math.Pow(2, float64(feats.BitDepth-1))
	var sumSquares float64
	for _, s := range samples {
		v := float64(s) / fullScale
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	if rms > 0 {
		feats.SignalDBFS = 20 * math.Log10(rms)
	} else {
		feats.SignalDBFS = math.Inf(-1)
	}

	window := samples
	if len(window) > noiseWindow {
		window = window[:noiseWindow]
	}
	feats.NoiseLevel = stddev(window)

	feats.PauseCount = countPauses(samples, feats.Channels, feats.SampleRate, fullScale)
	if feats.DurationSeconds > 0 {
		feats.PauseFrequency = float64(feats.PauseCount) / feats.DurationSeconds * 60
	}

	return feats, nil
}

// countPauses walks the frames and counts silent stretches of at least
// minPauseSeconds. Multi-channel frames are judged by their loudest
// channel.
func countPauses(samples []int, channels, sampleRate int, fullScale float64) int {
	if channels <= 0 || sampleRate <= 0 {
		return 0
	}
	minFrames := int(minPauseSeconds * float64(sampleRate))
	if minFrames < 1 {
		minFrames = 1
	}

	pauses := 0
	run := 0
	for i := 0; i+channels <= len(samples); i += channels {
		var peak float64
		for c := 0; c < channels; c++ {
			v := math.Abs(float64(samples[i+c])) / fullScale
			if v > peak {
				peak = v
			}
		}
		if peak < pauseAmplitude {
			run++
			continue
		}
		if run >= minFrames {
			pauses++
		}
		run = 0
	}
	if run >= minFrames {
		pauses++
	}
	return pauses
}

func stddev(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))
	var variance float64
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(samples)))
}

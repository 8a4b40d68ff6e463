package gcp

import (
	"context"

	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

// googleConfidence is the trust tier assigned to cloud transcripts.
const googleConfidence = 0.9

// SpeechEngine adapts the cloud recognizer to the transcription chain.
type SpeechEngine struct {
	svc Speech
}

func NewSpeechEngine(svc Speech) *SpeechEngine {
	return &SpeechEngine{svc: svc}
}

func (e *SpeechEngine) Name() string { return "google" }

func (e *SpeechEngine) Transcribe(ctx context.Context, audio []byte, sampleRate int) (voice.Transcript, error) {
	res, err := e.svc.TranscribeAudioBytes(ctx, audio, SpeechConfig{
		SampleRateHertz:            sampleRate,
		EnableAutomaticPunctuation: true,
	})
	if err != nil {
		return voice.Transcript{}, err
	}
	return voice.Transcript{Text: res.PrimaryText, Confidence: googleConfidence}, nil
}

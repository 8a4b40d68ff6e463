package voice

import (
	"context"

	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// EngineNone marks a transcript that no engine could produce.
const EngineNone = "none"

type Transcript struct {
	Text       string
	Confidence float64
	Engine     string
}

// Engine transcribes a WAV payload. Confidence reflects the trust tier
// of the engine, not a per-utterance probability.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, sampleRate int) (Transcript, error)
}

// Chain tries engines in order and degrades to an empty zero-confidence
// transcript when every engine fails. A cloud recognizer outage must
// not fail the claim pipeline.
type Chain struct {
	engines []Engine
	log     *logger.Logger
}

func NewChain(log *logger.Logger, engines ...Engine) *Chain {
	return &Chain{
		engines: engines,
		log:     log.With("component", "TranscribeChain"),
	}
}

func (c *Chain) Transcribe(ctx context.Context, audio []byte, sampleRate int) Transcript {
	for _, eng := range c.engines {
		if err := ctx.Err(); err != nil {
			break
		}
		t, err := eng.Transcribe(ctx, audio, sampleRate)
		if err != nil {
			c.log.Warn("transcription engine failed, trying next", "engine", eng.Name(), "error", err)
			continue
		}
		if t.Text == "" {
			c.log.Debug("transcription engine returned empty text", "engine", eng.Name())
			continue
		}
		t.Engine = eng.Name()
		return t
	}
	return Transcript{Text: "", Confidence: 0, Engine: EngineNone}
}

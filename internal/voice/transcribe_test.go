package voice

import (
	"context"
	"fmt"
	"testing"

	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type stubEngine struct {
	name  string
	text  string
	conf  float64
	err   error
	calls int
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Transcribe(ctx context.Context, audio []byte, sampleRate int) (Transcript, error) {
	e.calls++
	if e.err != nil {
		return Transcript{}, e.err
	}
	return Transcript{Text: e.text, Confidence: e.conf}, nil
}

func chainLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestChainFirstEngineWins(t *testing.T) {
	first := &stubEngine{name: "gcp_speech", text: "my car was stolen", conf: 0.9}
	second := &stubEngine{name: "whisper", text: "unused", conf: 0.7}

	got := NewChain(chainLogger(t), first, second).Transcribe(context.Background(), []byte{1}, 16000)
	if got.Text != "my car was stolen" || got.Engine != "gcp_speech" || got.Confidence != 0.9 {
		t.Fatalf("Transcribe: got %+v", got)
	}
	if second.calls != 0 {
		t.Fatalf("second engine called %d times, want 0", second.calls)
	}
}

func TestChainFallsThroughOnErrorAndEmptyText(t *testing.T) {
	failing := &stubEngine{name: "gcp_speech", err: fmt.Errorf("recognizer unavailable")}
	empty := &stubEngine{name: "whisper", text: ""}
	last := &stubEngine{name: "backup", text: "the shop flooded", conf: 0.6}

	got := NewChain(chainLogger(t), failing, empty, last).Transcribe(context.Background(), []byte{1}, 16000)
	if got.Engine != "backup" || got.Text != "the shop flooded" {
		t.Fatalf("Transcribe: got %+v", got)
	}
}

func TestChainDegradesToNone(t *testing.T) {
	failing := &stubEngine{name: "gcp_speech", err: fmt.Errorf("down")}

	got := NewChain(chainLogger(t), failing).Transcribe(context.Background(), []byte{1}, 16000)
	if got.Engine != EngineNone || got.Text != "" || got.Confidence != 0 {
		t.Fatalf("Transcribe: want zero transcript, got %+v", got)
	}
}

func TestChainNoEngines(t *testing.T) {
	got := NewChain(chainLogger(t)).Transcribe(context.Background(), []byte{1}, 16000)
	if got.Engine != EngineNone {
		t.Fatalf("Transcribe: want engine %q, got %q", EngineNone, got.Engine)
	}
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	eng := &stubEngine{name: "gcp_speech", text: "should not run"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewChain(chainLogger(t), eng).Transcribe(ctx, []byte{1}, 16000)
	if got.Engine != EngineNone {
		t.Fatalf("Transcribe: want engine %q, got %q", EngineNone, got.Engine)
	}
	if eng.calls != 0 {
		t.Fatalf("engine called %d times after cancel, want 0", eng.calls)
	}
}

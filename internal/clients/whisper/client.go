// Package whisper talks to a self-hosted transcription server so voice
// claims still get a transcript when the Google Speech API is
// unreachable or unconfigured. Its transcripts carry a lower
// confidence than the hosted engine.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/httpx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

// offlineConfidence is the trust assigned to self-hosted transcripts.
const offlineConfidence = 0.6

type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("WHISPER_TIMEOUT_SECONDS", 120)
	maxRetries := envutil.Int("WHISPER_MAX_RETRIES", 2)

	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("WHISPER_BASE_URL")),
		Model:      envutil.Str("WHISPER_MODEL", "base"),
		Timeout:    time.Duration(timeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing WHISPER_BASE_URL")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		log:        log.With("client", "WhisperClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements voice.Engine.
func (c *Client) Name() string {
	return "offline"
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe implements voice.Engine by posting the audio as a
// multipart upload to the server's /transcribe endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, sampleRate int) (voice.Transcript, error) {
	if len(audio) == 0 {
		return voice.Transcript{}, fmt.Errorf("whisper: empty audio")
	}

	backoff := 1 * time.Second
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return voice.Transcript{}, ctx.Err()
		}

		text, err := c.transcribeOnce(ctx, audio, sampleRate)
		if err == nil {
			return voice.Transcript{
				Text:       strings.TrimSpace(text),
				Confidence: offlineConfidence,
				Engine:     c.Name(),
			}, nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			break
		}

		c.log.Warn("Whisper request retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", backoff.String(),
			"error", err.Error(),
		)
		if err := httpx.JitterSleep(ctx, backoff); err != nil {
			return voice.Transcript{}, err
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}

	return voice.Transcript{}, lastErr
}

func (c *Client) transcribeOnce(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "claim.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", c.cfg.Model)
	if sampleRate > 0 {
		_ = mw.WriteField("sample_rate", fmt.Sprintf("%d", sampleRate))
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.cfg.BaseURL+"/transcribe", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out transcribeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("whisper decode error: %w; raw=%s", err, string(raw))
	}
	return out.Text, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "whisper: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 1000 {
		msg = msg[:1000] + "..."
	}
	return fmt.Sprintf("whisper http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

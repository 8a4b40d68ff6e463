// Package twilio is a minimal REST client for the messaging and voice
// endpoints the notification service needs. Official SDK omitted on
// purpose; the surface is two endpoints and a form POST.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/httpx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type Client interface {
	SendSMS(ctx context.Context, to string, body string) (*Message, error)
	SendWhatsApp(ctx context.Context, to string, body string) (*Message, error)
	PlaceVoiceCall(ctx context.Context, to string, twiml string) (*Call, error)
}

type Config struct {
	AccountSID  string
	AuthToken   string
	BaseURL     string
	DefaultFrom string
	VoiceFrom   string
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("TWILIO_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("TWILIO_MAX_RETRIES", 4)

	return Config{
		AccountSID:  strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		AuthToken:   strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		BaseURL:     strings.TrimSpace(os.Getenv("TWILIO_BASE_URL")),
		DefaultFrom: strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
		VoiceFrom:   strings.TrimSpace(os.Getenv("TWILIO_VOICE_FROM_NUMBER")),
		Timeout:     time.Duration(timeoutSec) * time.Second,
		MaxRetries:  maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN")
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}

	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	maxRetries int
}

type Message struct {
	SID          string  `json:"sid,omitempty"`
	AccountSID   string  `json:"account_sid,omitempty"`
	To           string  `json:"to,omitempty"`
	From         string  `json:"from,omitempty"`
	Body         string  `json:"body,omitempty"`
	Status       string  `json:"status,omitempty"`
	ErrorCode    *int    `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	DateCreated  string  `json:"date_created,omitempty"`
	DateSent     string  `json:"date_sent,omitempty"`
}

type Call struct {
	SID         string `json:"sid,omitempty"`
	AccountSID  string `json:"account_sid,omitempty"`
	To          string `json:"to,omitempty"`
	From        string `json:"from,omitempty"`
	Status      string `json:"status,omitempty"`
	DateCreated string `json:"date_created,omitempty"`
}

func (c *client) SendSMS(ctx context.Context, to string, body string) (*Message, error) {
	return c.sendMessage(ctx, strings.TrimSpace(to), body)
}

func (c *client) SendWhatsApp(ctx context.Context, to string, body string) (*Message, error) {
	to = strings.TrimSpace(to)
	if to != "" && !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}
	return c.sendMessage(ctx, to, body)
}

func (c *client) sendMessage(ctx context.Context, to string, body string) (*Message, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("twilio client unavailable")
	}
	if to == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("twilio: Body required")
	}

	from := c.cfg.DefaultFrom
	if strings.HasPrefix(to, "whatsapp:") && !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}
	if from == "" {
		return nil, fmt.Errorf("twilio: sender required (TWILIO_FROM_NUMBER)")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	return doForm[Message](c, ctx, http.MethodPost, endpoint, form)
}

// PlaceVoiceCall rings the customer and plays the given TwiML, which
// is how voice-first users receive claim updates.
func (c *client) PlaceVoiceCall(ctx context.Context, to string, twiml string) (*Call, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("twilio client unavailable")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	twiml = strings.TrimSpace(twiml)
	if twiml == "" {
		return nil, fmt.Errorf("twilio: Twiml required")
	}

	from := c.cfg.VoiceFrom
	if from == "" {
		from = c.cfg.DefaultFrom
	}
	if from == "" {
		return nil, fmt.Errorf("twilio: sender required (TWILIO_VOICE_FROM_NUMBER)")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Twiml", twiml)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.cfg.BaseURL, c.cfg.AccountSID)
	return doForm[Call](c, ctx, http.MethodPost, endpoint, form)
}

// ---------- HTTP / retry helpers ----------

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "twilio: <nil error>"
	}
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		if e.APIError.Code != 0 {
			return fmt.Sprintf("twilio http %d: %s (code=%d)", e.StatusCode, e.APIError.Message, e.APIError.Code)
		}
		return fmt.Sprintf("twilio http %d: %s", e.StatusCode, e.APIError.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("twilio http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func doForm[T any](c *client, ctx context.Context, method, urlStr string, form url.Values) (*T, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, resp, err := doFormOnce[T](c, ctx, method, urlStr, form)
		if err == nil {
			return out, nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := backoff
		if resp != nil {
			if ra := httpx.RetryAfterDuration(resp.Header); ra > sleepFor {
				sleepFor = ra
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}

		c.log.Warn("Twilio request retrying",
			"url", urlStr,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		if err := httpx.JitterSleep(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("unreachable retry loop")
}

func doFormOnce[T any](c *client, ctx context.Context, method, urlStr string, form url.Values) (*T, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
			return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), APIError: &ae}
		}
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) == 0 {
		return &out, resp, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("twilio decode error: %w; raw=%s", err, string(raw))
	}
	return &out, resp, nil
}

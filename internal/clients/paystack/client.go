// Package paystack is a minimal REST client for the Paystack
// transaction endpoints used for premium and claim payouts. Amounts
// cross the wire in kobo.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/httpx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type Client interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*Transaction, error)
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}

type Config struct {
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("PAYSTACK_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("PAYSTACK_MAX_RETRIES", 4)

	return Config{
		SecretKey:  strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		BaseURL:    strings.TrimSpace(os.Getenv("PAYSTACK_BASE_URL")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing PAYSTACK_SECRET_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}

	return &client{
		log:        log.With("client", "PaystackClient"),
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

type InitializeRequest struct {
	Email       string
	AmountNaira float64
	Reference   string
	CallbackURL string
	Currency    string
}

type Transaction struct {
	Reference        string `json:"reference,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
	Status           string `json:"status,omitempty"`
	AmountKobo       int64  `json:"amount,omitempty"`
	Currency         string `json:"currency,omitempty"`
	GatewayResponse  string `json:"gateway_response,omitempty"`
	PaidAt           string `json:"paid_at,omitempty"`
	Channel          string `json:"channel,omitempty"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NairaToKobo converts a naira amount to the integer kobo amount
// Paystack expects, rounding to the nearest kobo.
func NairaToKobo(naira float64) int64 {
	return int64(math.Round(naira * 100))
}

func KoboToNaira(kobo int64) float64 {
	return float64(kobo) / 100
}

func (c *client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Transaction, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("paystack: email required")
	}
	if req.AmountNaira <= 0 {
		return nil, fmt.Errorf("paystack: amount must be positive")
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	body := map[string]interface{}{
		"email":    req.Email,
		"amount":   NairaToKobo(req.AmountNaira),
		"currency": req.Currency,
	}
	if req.Reference != "" {
		body["reference"] = req.Reference
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}

	return doJSON[Transaction](c, ctx, http.MethodPost, c.cfg.BaseURL+"/transaction/initialize", body)
}

func (c *client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("paystack: reference required")
	}
	return doJSON[Transaction](c, ctx, http.MethodGet, c.cfg.BaseURL+"/transaction/verify/"+reference, nil)
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "paystack: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("paystack http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func doJSON[T any](c *client, ctx context.Context, method, urlStr string, body interface{}) (*T, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, resp, err := doJSONOnce[T](c, ctx, method, urlStr, body)
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

		c.log.Warn("Paystack request retrying",
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

func doJSONOnce[T any](c *client, ctx context.Context, method, urlStr string, body interface{}) (*T, *http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, urlStr, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp, fmt.Errorf("paystack decode error: %w; raw=%s", err, string(raw))
	}
	if !env.Status {
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: env.Message}
	}

	var out T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, resp, fmt.Errorf("paystack decode data error: %w; raw=%s", err, string(env.Data))
		}
	}
	return &out, resp, nil
}

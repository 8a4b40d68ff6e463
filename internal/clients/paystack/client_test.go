package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestNairaToKobo(t *testing.T) {
	cases := []struct {
		naira float64
		want  int64
	}{
		{0, 0},
		{1, 100},
		{2500.50, 250050},
		{0.005, 1},
		{19.999, 2000},
	}
	for _, tc := range cases {
		if got := NairaToKobo(tc.naira); got != tc.want {
			t.Fatalf("NairaToKobo(%v): want=%d got=%d", tc.naira, tc.want, got)
		}
	}
	if got := KoboToNaira(250050); got != 2500.50 {
		t.Fatalf("KoboToNaira(250050): want=2500.50 got=%v", got)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "sk_test_abc"
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(secret, body, sig) {
		t.Fatalf("VerifyWebhookSignature: valid signature rejected")
	}
	if VerifyWebhookSignature(secret, body, "deadbeef") {
		t.Fatalf("VerifyWebhookSignature: bad signature accepted")
	}
	if VerifyWebhookSignature(secret, []byte(`{"event":"other"}`), sig) {
		t.Fatalf("VerifyWebhookSignature: tampered body accepted")
	}
	if VerifyWebhookSignature("", body, sig) {
		t.Fatalf("VerifyWebhookSignature: empty secret accepted")
	}
	if VerifyWebhookSignature(secret, body, "") {
		t.Fatalf("VerifyWebhookSignature: empty signature accepted")
	}
}

func TestParseWebhookEvent(t *testing.T) {
	ev, err := ParseWebhookEvent([]byte(`{"event":"charge.success","data":{"reference":"PAY-1","status":"success","amount":250050}}`))
	if err != nil {
		t.Fatalf("ParseWebhookEvent: %v", err)
	}
	if ev.Event != "charge.success" || ev.Data.Reference != "PAY-1" || ev.Data.AmountKobo != 250050 {
		t.Fatalf("ParseWebhookEvent: got %+v", ev)
	}
	if _, err := ParseWebhookEvent([]byte("not json")); err == nil {
		t.Fatalf("ParseWebhookEvent: expected error for invalid body")
	}
}

func TestInitializeTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("authorization: got %q", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["amount"] != float64(250050) {
			t.Errorf("amount: got %v", body["amount"])
		}
		if body["currency"] != "NGN" {
			t.Errorf("currency: got %v", body["currency"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc123","access_code":"abc123","reference":"PAY-1"}}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{SecretKey: "sk_test_abc", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	txn, err := c.InitializeTransaction(context.Background(), InitializeRequest{
		Email:       "ada@example.com",
		AmountNaira: 2500.50,
		Reference:   "PAY-1",
	})
	if err != nil {
		t.Fatalf("InitializeTransaction: %v", err)
	}
	if txn.AuthorizationURL != "https://checkout.paystack.com/abc123" || txn.AccessCode != "abc123" {
		t.Fatalf("InitializeTransaction: got %+v", txn)
	}
}

func TestInitializeTransactionValidation(t *testing.T) {
	c, err := New(testLogger(t), Config{SecretKey: "sk_test_abc"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.InitializeTransaction(context.Background(), InitializeRequest{AmountNaira: 100}); err == nil {
		t.Fatalf("InitializeTransaction: expected error for missing email")
	}
	if _, err := c.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c", AmountNaira: 0}); err == nil {
		t.Fatalf("InitializeTransaction: expected error for zero amount")
	}
}

func TestVerifyTransactionEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/PAY-404" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{SecretKey: "sk_test_abc", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.VerifyTransaction(context.Background(), "PAY-404")
	if err == nil {
		t.Fatalf("VerifyTransaction: expected error")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("VerifyTransaction: want *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Body != "Transaction reference not found" {
		t.Fatalf("VerifyTransaction: body %q", httpErr.Body)
	}
}

func TestNewRequiresSecretKey(t *testing.T) {
	if _, err := New(testLogger(t), Config{}); err == nil {
		t.Fatalf("New: expected error for missing secret key")
	}
}

package app

import (
	"fmt"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	"github.com/sorosurance/sorosurance-backend/internal/clients/paystack"
	redisstore "github.com/sorosurance/sorosurance-backend/internal/clients/redis"
	"github.com/sorosurance/sorosurance-backend/internal/clients/sendgrid"
	"github.com/sorosurance/sorosurance-backend/internal/clients/twilio"
	"github.com/sorosurance/sorosurance-backend/internal/clients/whisper"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// Clients holds every external integration. Object storage is the only
// hard requirement; everything else degrades at runtime when its creds
// are absent, so a local instance boots with just Postgres and a
// bucket emulator.
type Clients struct {
	Bucket gcp.BucketService

	Speech     gcp.Speech
	Vision     gcp.Vision
	VideoIntel gcp.VideoIntel
	DocumentAI gcp.DocumentAI

	Twilio   twilio.Client
	Sendgrid sendgrid.Client
	Paystack paystack.Client
	Whisper  *whisper.Client

	Sessions redisstore.SessionStore
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return c, fmt.Errorf("init bucket service: %w", err)
	}
	c.Bucket = bucket

	if c.Speech, err = gcp.NewSpeech(log); err != nil {
		log.Warn("speech-to-text unavailable, falling back to offline engine", "error", err)
	}
	if c.Vision, err = gcp.NewVision(log); err != nil {
		log.Warn("vision inspection unavailable", "error", err)
	}
	if c.VideoIntel, err = gcp.NewVideoIntel(log); err != nil {
		log.Warn("video inspection unavailable", "error", err)
	}
	if c.DocumentAI, err = gcp.NewDocumentAI(log); err != nil {
		log.Warn("document parsing unavailable", "error", err)
	}

	if c.Twilio, err = twilio.NewFromEnv(log); err != nil {
		log.Warn("twilio unavailable, voice/SMS notifications disabled", "error", err)
	}
	if c.Sendgrid, err = sendgrid.NewFromEnv(log); err != nil {
		log.Warn("sendgrid unavailable, email notifications disabled", "error", err)
	}
	if c.Paystack, err = paystack.NewFromEnv(log); err != nil {
		log.Warn("paystack unavailable, payments disabled", "error", err)
	}
	if c.Whisper, err = whisper.NewFromEnv(log); err != nil {
		log.Warn("offline transcription unavailable", "error", err)
	}
	if c.Sessions, err = redisstore.NewSessionStore(log); err != nil {
		log.Warn("redis unavailable, USSD sessions disabled", "error", err)
	}

	return c, nil
}

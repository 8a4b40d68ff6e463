package app

import (
	"time"

	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ServiceName string
	Environment string
	Version     string

	ListenAddr string
}

func LoadConfig() Config {
	return Config{
		JWTSecretKey:    envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_TTL", 604800)) * time.Second,
		ServiceName:     envutil.Str("SERVICE_NAME", "sorosurance"),
		Environment:     envutil.Str("ENVIRONMENT", "development"),
		Version:         envutil.Str("SERVICE_VERSION", "dev"),
		ListenAddr:      envutil.Str("LISTEN_ADDR", ":8080"),
	}
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// SessionStore keeps short-lived USSD dialog state keyed by the
// gateway session id. Values are JSON and expire on their own so an
// abandoned dial leaves nothing behind.
type SessionStore interface {
	Get(ctx context.Context, sessionID string, dest any) (bool, error)
	Put(ctx context.Context, sessionID string, val any) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

type sessionStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewSessionStore(log *logger.Logger) (SessionStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := envutil.Str("REDIS_USSD_PREFIX", "ussd:sess:")
	ttlSec := envutil.Int("USSD_SESSION_TTL_SECONDS", 180)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &sessionStore{
		log:    log.With("service", "RedisSessionStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    time.Duration(ttlSec) * time.Second,
	}, nil
}

func (s *sessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *sessionStore) Get(ctx context.Context, sessionID string, dest any) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, fmt.Errorf("redis session store not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn("bad redis session payload", "session_id", sessionID, "error", err)
		return false, nil
	}
	return true, nil
}

// Put refreshes the TTL on every write so the session stays alive for
// as long as the caller keeps replying.
func (s *sessionStore) Put(ctx context.Context, sessionID string, val any) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis session store not initialized")
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sessionID), raw, s.ttl).Err()
}

func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis session store not initialized")
	}
	return s.rdb.Del(ctx, s.key(sessionID)).Err()
}

func (s *sessionStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

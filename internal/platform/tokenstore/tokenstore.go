// Package tokenstore keeps single-use tokens for email verification and
// password reset links.
package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

// ErrNotFound covers unknown, expired and already used tokens.
var ErrNotFound = errors.New("token not found or expired")

type Store interface {
	Issue(ctx context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error)
	// Consume returns the owner and deletes the token.
	Consume(ctx context.Context, purpose, token string) (uuid.UUID, error)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func key(purpose, token string) string {
	return "tok:" + purpose + ":" + token
}

type redisStore struct {
	rdb *redis.Client
}

func NewRedis(addr, password string, db int) Store {
	return &redisStore{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewRedisFromClient is used when the caller already owns a client.
func NewRedisFromClient(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Issue(ctx context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, key(purpose, tok), userID.String(), ttl).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *redisStore) Consume(ctx context.Context, purpose, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrNotFound
	}
	v, err := s.rdb.GetDel(ctx, key(purpose, token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

type memoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemory keeps tokens in process; tokens die with the process.
func NewMemory() Store {
	return &memoryStore{cache: cache.New(24*time.Hour, 10*time.Minute)}
}

func (s *memoryStore) Issue(_ context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	s.cache.Set(key(purpose, tok), userID, ttl)
	return tok, nil
}

func (s *memoryStore) Consume(_ context.Context, purpose, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrNotFound
	}
	k := key(purpose, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(k)
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	s.cache.Delete(k)
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/villastay/backend/internal/models"
)

// ErrQuoteNotFound is returned for unknown or expired hold tokens.
var ErrQuoteNotFound = errors.New("quote not found or expired")

// QuoteStore keeps issued quotes until their hold token expires.
type QuoteStore interface {
	Save(ctx context.Context, q *models.Quote, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.Quote, error)
	Delete(ctx context.Context, token string) error
}

const quoteKeyPrefix = "quote:hold:"

// RedisQuoteStore stores quotes as JSON with a Redis TTL.
type RedisQuoteStore struct {
	client redis.Cmdable
}

// NewRedisQuoteStore creates a Redis-backed quote store.
func NewRedisQuoteStore(client redis.Cmdable) *RedisQuoteStore {
	return &RedisQuoteStore{client: client}
}

func (s *RedisQuoteStore) Save(ctx context.Context, q *models.Quote, ttl time.Duration) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	return s.client.Set(ctx, quoteKeyPrefix+q.HoldToken, raw, ttl).Err()
}

func (s *RedisQuoteStore) Get(ctx context.Context, token string) (*models.Quote, error) {
	raw, err := s.client.Get(ctx, quoteKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	var q models.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}
	return &q, nil
}

func (s *RedisQuoteStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, quoteKeyPrefix+token).Err()
}

// MemoryQuoteStore is an in-process QuoteStore for tests and single-node development.
type MemoryQuoteStore struct {
	mu     sync.Mutex
	quotes map[string]memoryQuote
	now    func() time.Time
}

type memoryQuote struct {
	quote   models.Quote
	expires time.Time
}

// NewMemoryQuoteStore creates an empty in-memory store.
func NewMemoryQuoteStore(now func() time.Time) *MemoryQuoteStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryQuoteStore{quotes: make(map[string]memoryQuote), now: now}
}

func (s *MemoryQuoteStore) Save(_ context.Context, q *models.Quote, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.HoldToken] = memoryQuote{quote: *q, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryQuoteStore) Get(_ context.Context, token string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mq, ok := s.quotes[token]
	if !ok || !s.now().Before(mq.expires) {
		delete(s.quotes, token)
		return nil, ErrQuoteNotFound
	}
	q := mq.quote
	return &q, nil
}

func (s *MemoryQuoteStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, token)
	return nil
}

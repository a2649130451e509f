package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"strings"
	"time"
)

// DefaultTTL is how long a key and its stored result are kept.
const DefaultTTL = 24 * time.Hour

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ErrFingerprintMismatch is returned when a key is reused for a different request body.
var ErrFingerprintMismatch = errors.New("idempotency: key reused with a different request")

// Record is what the store keeps under a key.
type Record struct {
	Status      Status          `json:"status"`
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Reservation is the outcome of Reserve. New means the caller owns the key and must either
// Complete or Release it.
type Reservation struct {
	New    bool
	Record Record
}

// Store is the reservation contract the order service depends on.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string) (Reservation, error)
	Complete(ctx context.Context, key, fingerprint string, result any) error
	Release(ctx context.Context, key string) error
}

// RedisStore keeps reservations in redis with SETNX so concurrent duplicates race on one key.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func redisKey(key string) string {
	return fmt.Sprintf("idempotency:%s", strings.TrimSpace(key))
}

// Fingerprint hashes a request body so a replay can be matched to the original request.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string) (Reservation, error) {
	record := Record{Status: StatusPending, Fingerprint: fingerprint, CreatedAt: s.now().UTC()}
	payload, err := json.Marshal(record)
	if err != nil {
		return Reservation{}, err
	}

	// The key can expire between SETNX and GET, so give it one more try.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, redisKey(key), payload, s.ttl).Result()
		if err != nil {
			return Reservation{}, err
		}
		if ok {
			return Reservation{New: true, Record: record}, nil
		}

		raw, err := s.rdb.Get(ctx, redisKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Reservation{}, err
		}

		var existing Record
		if err := json.Unmarshal(raw, &existing); err != nil {
			return Reservation{}, fmt.Errorf("idempotency: decode record: %w", err)
		}
		if fingerprint != "" && existing.Fingerprint != "" && existing.Fingerprint != fingerprint {
			return Reservation{Record: existing}, ErrFingerprintMismatch
		}
		return Reservation{Record: existing}, nil
	}

	return Reservation{}, fmt.Errorf("idempotency: could not reserve key %q", key)
}

// Complete stores the result for replay and keeps the key for the full TTL.
func (s *RedisStore) Complete(ctx context.Context, key, fingerprint string, result any) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Record{
		Status:      StatusCompleted,
		Fingerprint: fingerprint,
		Result:      encoded,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, redisKey(key), payload, s.ttl).Err()
}

// Release drops a pending reservation so the client can retry after a failure.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKey(key)).Err()
}

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// AttemptLimiter bounds OTP verification attempts per request.
type AttemptLimiter interface {
	// Hit records one attempt and fails once the limit is exceeded.
	Hit(ctx context.Context, requestID string) error
	// Reset forgets recorded attempts, typically after a fresh code is issued.
	Reset(ctx context.Context, requestID string) error
}

const attemptKeyPrefix = "otp:attempts:"

type redisAttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewRedisAttemptLimiter counts attempts in Redis with INCR and a window TTL.
func NewRedisAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) AttemptLimiter {
	return &redisAttemptLimiter{client: client, max: int64(maxAttempts), window: window}
}

func (l *redisAttemptLimiter) Hit(ctx context.Context, requestID string) error {
	if l.max <= 0 {
		return nil
	}
	key := attemptKeyPrefix + requestID
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return apperrors.NewUnavailable(fmt.Errorf("record otp attempt: %w", err))
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return apperrors.NewUnavailable(fmt.Errorf("expire otp attempts: %w", err))
		}
	}
	if count > l.max {
		return tooManyAttempts()
	}
	return nil
}

func (l *redisAttemptLimiter) Reset(ctx context.Context, requestID string) error {
	if err := l.client.Del(ctx, attemptKeyPrefix+requestID).Err(); err != nil {
		return apperrors.NewUnavailable(fmt.Errorf("reset otp attempts: %w", err))
	}
	return nil
}

type memoryAttemptLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	now    func() time.Time
	hits   map[string]attemptWindow
}

type attemptWindow struct {
	count   int
	expires time.Time
}

// NewMemoryAttemptLimiter keeps counters in process memory.
func NewMemoryAttemptLimiter(maxAttempts int, window time.Duration) AttemptLimiter {
	return &memoryAttemptLimiter{
		max:    maxAttempts,
		window: window,
		now:    time.Now,
		hits:   make(map[string]attemptWindow),
	}
}

func (l *memoryAttemptLimiter) Hit(_ context.Context, requestID string) error {
	if l.max <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w := l.hits[requestID]
	if w.expires.IsZero() || !now.Before(w.expires) {
		w = attemptWindow{expires: now.Add(l.window)}
	}
	w.count++
	l.hits[requestID] = w
	if w.count > l.max {
		return tooManyAttempts()
	}
	return nil
}

func (l *memoryAttemptLimiter) Reset(_ context.Context, requestID string) error {
	l.mu.Lock()
	delete(l.hits, requestID)
	l.mu.Unlock()
	return nil
}

func tooManyAttempts() error {
	return apperrors.NewOTPError(apperrors.CodeOTPTooManyAttempts, "too many verification attempts")
}

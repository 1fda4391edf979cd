package auth

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != OTPDigits {
			t.Fatalf("expected %d digits, got %q", OTPDigits, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non digit in %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 150 {
		t.Fatalf("codes look repetitive: %d distinct of 200", len(seen))
	}
}

func TestMemoryAttemptLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryAttemptLimiter(3, time.Minute).(*memoryAttemptLimiter)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := limiter.Hit(ctx, "req"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := limiter.Hit(ctx, "req"); !apperrors.HasCode(err, apperrors.CodeOTPTooManyAttempts) {
		t.Fatalf("expected OTP_TOO_MANY_ATTEMPTS, got %v", err)
	}
	if err := limiter.Hit(ctx, "other"); err != nil {
		t.Fatalf("counters must be per request: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := limiter.Hit(ctx, "req"); err != nil {
		t.Fatalf("window should have rolled over: %v", err)
	}

	for i := 0; i < 3; i++ {
		_ = limiter.Hit(ctx, "req")
	}
	if err := limiter.Reset(ctx, "req"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := limiter.Hit(ctx, "req"); err != nil {
		t.Fatalf("reset should clear attempts: %v", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := CheckPassword(hashed, "s3cret!")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	ok, err = CheckPassword(hashed, "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}
}

package service

import (
	"testing"
	"time"

	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func TestOTPGenerateRejectsNonCleaning(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	owner := f.user(t, "a@example.com", domain.RoleStudent, "A")
	staff := f.user(t, "staff@example.com", domain.RoleStaff, "")
	req := f.request(t, owner, domain.ServiceElectrical)

	if _, err := f.otp.Generate(f.ctx, staff, req.ID); !apperrors.IsKind(err, apperrors.KindState) {
		t.Fatalf("expected state error for electrical request, got %v", err)
	}
	cleaning := f.request(t, owner, domain.ServiceCleaning)
	if _, err := f.otp.Generate(f.ctx, owner, cleaning.ID); !apperrors.HasCode(err, apperrors.CodeRoleNotPermitted) {
		t.Fatalf("students cannot generate codes, got %v", err)
	}
}

func TestOTPVerifyCompletesOnce(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	owner := f.user(t, "a@example.com", domain.RoleStudent, "A")
	staff := f.user(t, "staff@example.com", domain.RoleStaff, "")
	req := f.request(t, owner, domain.ServiceCleaning)

	issue, err := f.otp.Generate(f.ctx, staff, req.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(issue.Code) != 6 {
		t.Fatalf("expected six digit code, got %q", issue.Code)
	}
	if want := f.clock.Now().Add(15 * time.Minute); !issue.ExpiresAt.Equal(want) {
		t.Fatalf("expiry %v, want %v", issue.ExpiresAt, want)
	}

	if _, err := f.otp.Verify(f.ctx, staff, req.ID, issue.Code); !apperrors.HasCode(err, apperrors.CodeAccessDenied) {
		t.Fatalf("only the owner may verify, got %v", err)
	}

	f.clock.Advance(5 * time.Minute)
	done, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if done.Status != domain.StatusCompleted || done.ActualCompletion == nil || done.VerificationCode != nil || done.CodeExpiresAt != nil {
		t.Fatalf("unexpected verified request %+v", done)
	}

	if _, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code); !apperrors.HasCode(err, apperrors.CodeOTPNotIssued) {
		t.Fatalf("second verify must report no code, got %v", err)
	}
}

func TestOTPExpiredCodeIsCleared(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	owner := f.user(t, "a@example.com", domain.RoleStudent, "A")
	staff := f.user(t, "staff@example.com", domain.RoleStaff, "")
	req := f.request(t, owner, domain.ServiceCleaning)

	issue, err := f.otp.Generate(f.ctx, staff, req.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	f.clock.Advance(16 * time.Minute)
	if _, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code); !apperrors.HasCode(err, apperrors.CodeOTPExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	stored, err := f.requests.Get(f.ctx, owner, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.VerificationCode != nil || stored.CodeExpiresAt != nil || stored.Status != domain.StatusPending {
		t.Fatalf("expired code must be cleared without completing: %+v", stored)
	}
	if _, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code); !apperrors.HasCode(err, apperrors.CodeOTPNotIssued) {
		t.Fatalf("after expiry the code is gone, got %v", err)
	}
}

func TestOTPMismatchAndAttemptLimit(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	owner := f.user(t, "a@example.com", domain.RoleStudent, "A")
	staff := f.user(t, "staff@example.com", domain.RoleStaff, "")
	req := f.request(t, owner, domain.ServiceCleaning)

	issue, err := f.otp.Generate(f.ctx, staff, req.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wrong := "000000"
	if issue.Code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		if _, err := f.otp.Verify(f.ctx, owner, req.ID, wrong); !apperrors.HasCode(err, apperrors.CodeOTPMismatch) {
			t.Fatalf("attempt %d: expected mismatch, got %v", i+1, err)
		}
	}
	if _, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code); !apperrors.HasCode(err, apperrors.CodeOTPTooManyAttempts) {
		t.Fatalf("expected attempt limit, got %v", err)
	}

	reissued, err := f.otp.Generate(f.ctx, staff, req.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if _, err := f.otp.Verify(f.ctx, owner, req.ID, issue.Code); issue.Code != reissued.Code && !apperrors.HasCode(err, apperrors.CodeOTPMismatch) {
		t.Fatalf("old code must not verify after regeneration, got %v", err)
	}
	if _, err := f.otp.Verify(f.ctx, owner, req.ID, reissued.Code); err != nil {
		t.Fatalf("fresh code should verify: %v", err)
	}
}

func TestOTPVerifyRechecksServiceType(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	owner := f.user(t, "a@example.com", domain.RoleStudent, "A")
	req := f.request(t, owner, domain.ServiceMess)

	if _, err := f.otp.Verify(f.ctx, owner, req.ID, "123456"); !apperrors.IsKind(err, apperrors.KindState) {
		t.Fatalf("verify on non-cleaning must fail with state error, got %v", err)
	}
}

package domain

import (
	"testing"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func cleaningRequest(status RequestStatus) *ServiceRequest {
	return &ServiceRequest{
		ID:          "req-1",
		OwnerID:     "owner-1",
		ServiceType: ServiceCleaning,
		Status:      status,
		Priority:    PriorityMedium,
		Details:     CleaningDetails{CleaningType: CleaningRoom},
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCompleted, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionToCompletedStampsOnce(t *testing.T) {
	req := cleaningRequest(StatusInProgress)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := req.TransitionTo(StatusCompleted, first); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if req.ActualCompletion == nil || !req.ActualCompletion.Equal(first) {
		t.Fatalf("expected actual completion %v, got %v", first, req.ActualCompletion)
	}

	if err := req.TransitionTo(StatusCompleted, first.Add(time.Hour)); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if !req.ActualCompletion.Equal(first) {
		t.Fatalf("actual completion overwritten: %v", req.ActualCompletion)
	}
}

func TestTransitionOutOfTerminalFails(t *testing.T) {
	for _, status := range []RequestStatus{StatusCompleted, StatusCancelled} {
		req := cleaningRequest(status)
		err := req.TransitionTo(StatusInProgress, time.Now())
		if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
			t.Fatalf("expected state error from %s, got %v", status, err)
		}
		if req.Status != status {
			t.Fatalf("status mutated to %s", req.Status)
		}
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	req := cleaningRequest(StatusPending)
	if err := req.TransitionTo("archived", time.Now()); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelLeavesCompletionUnset(t *testing.T) {
	req := cleaningRequest(StatusPending)
	code := "123456"
	expires := time.Now().Add(time.Minute)
	req.VerificationCode, req.CodeExpiresAt = &code, &expires

	if err := req.TransitionTo(StatusCancelled, time.Now()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if req.ActualCompletion != nil {
		t.Fatalf("cancelled request must not carry actual completion")
	}
	if req.VerificationCode != nil || req.CodeExpiresAt != nil {
		t.Fatalf("code should be cleared on cancel")
	}
}

func TestAssign(t *testing.T) {
	req := cleaningRequest(StatusPending)
	if err := req.Assign("staff-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if req.Status != StatusInProgress || req.AssigneeID == nil || *req.AssigneeID != "staff-1" {
		t.Fatalf("unexpected request after assign: %+v", req)
	}

	closed := cleaningRequest(StatusCompleted)
	if err := closed.Assign("staff-1"); !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestAttachFeedbackRequiresCompleted(t *testing.T) {
	for _, status := range []RequestStatus{StatusPending, StatusInProgress, StatusCancelled} {
		for _, serviceType := range ServiceTypes {
			req := &ServiceRequest{ServiceType: serviceType, Status: status}
			if err := req.AttachFeedback(5, "great"); !apperrors.HasCode(err, apperrors.CodeInvalidState) {
				t.Fatalf("expected state error for %s/%s, got %v", serviceType, status, err)
			}
		}
	}

	req := cleaningRequest(StatusCompleted)
	if err := req.AttachFeedback(6, "too good"); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := req.AttachFeedback(4, "  tidy  "); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if *req.Rating != 4 || *req.Feedback != "tidy" || req.Status != StatusCompleted {
		t.Fatalf("unexpected feedback state: %+v", req)
	}
}

func TestIssueCode(t *testing.T) {
	now := time.Date(2026, 5, 5, 8, 0, 0, 0, time.UTC)
	req := cleaningRequest(StatusInProgress)
	expires, err := req.IssueCode("004211", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expected expiry 15 minutes out, got %v", expires)
	}

	electrical := &ServiceRequest{ServiceType: ServiceElectrical, Status: StatusPending}
	if _, err := electrical.IssueCode("111111", now); !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestVerifyCode(t *testing.T) {
	now := time.Date(2026, 5, 5, 8, 0, 0, 0, time.UTC)

	t.Run("not issued", func(t *testing.T) {
		req := cleaningRequest(StatusInProgress)
		if err := req.VerifyCode("123456", now); !apperrors.HasCode(err, apperrors.CodeOTPNotIssued) {
			t.Fatalf("expected not issued, got %v", err)
		}
	})

	t.Run("expired clears code", func(t *testing.T) {
		req := cleaningRequest(StatusInProgress)
		if _, err := req.IssueCode("123456", now); err != nil {
			t.Fatalf("issue: %v", err)
		}
		err := req.VerifyCode("123456", now.Add(OTPValidity+time.Second))
		if !apperrors.HasCode(err, apperrors.CodeOTPExpired) {
			t.Fatalf("expected expired, got %v", err)
		}
		if req.VerificationCode != nil || req.CodeExpiresAt != nil {
			t.Fatalf("expired code must be cleared")
		}
		if req.Status != StatusInProgress {
			t.Fatalf("status changed to %s", req.Status)
		}
	})

	t.Run("mismatch keeps code", func(t *testing.T) {
		req := cleaningRequest(StatusInProgress)
		if _, err := req.IssueCode("123456", now); err != nil {
			t.Fatalf("issue: %v", err)
		}
		if err := req.VerifyCode("654321", now.Add(time.Minute)); !apperrors.HasCode(err, apperrors.CodeOTPMismatch) {
			t.Fatalf("expected mismatch, got %v", err)
		}
		if req.VerificationCode == nil {
			t.Fatalf("code should survive a mismatch")
		}
	})

	t.Run("success completes", func(t *testing.T) {
		req := cleaningRequest(StatusInProgress)
		if _, err := req.IssueCode("012345", now); err != nil {
			t.Fatalf("issue: %v", err)
		}
		at := now.Add(OTPValidity)
		if err := req.VerifyCode("012345", at); err != nil {
			t.Fatalf("verify at expiry boundary: %v", err)
		}
		if req.Status != StatusCompleted || req.ActualCompletion == nil || !req.ActualCompletion.Equal(at) {
			t.Fatalf("unexpected state after verify: %+v", req)
		}
		if req.VerificationCode != nil || req.CodeExpiresAt != nil {
			t.Fatalf("consumed code must be cleared")
		}
		if err := req.VerifyCode("012345", at); !apperrors.HasCode(err, apperrors.CodeOTPNotIssued) {
			t.Fatalf("expected not issued on second attempt, got %v", err)
		}
	})

	t.Run("non cleaning with stray code", func(t *testing.T) {
		code := "123456"
		expires := now.Add(time.Minute)
		req := &ServiceRequest{ServiceType: ServiceWifi, Status: StatusPending, VerificationCode: &code, CodeExpiresAt: &expires}
		if err := req.VerifyCode(code, now); !apperrors.HasCode(err, apperrors.CodeInvalidState) {
			t.Fatalf("expected state error, got %v", err)
		}
	})
}

package domain

import (
	"crypto/subtle"
	"strings"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// OTPValidity is how long an issued verification code stays usable.
const OTPValidity = 15 * time.Minute

const (
	MinRating = 1
	MaxRating = 5
)

var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether a request may move from current to next.
// Staying in the same status is always allowed and is a no-op.
func CanTransition(current, next RequestStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the request to next. The first move into completed
// stamps ActualCompletion; later completed updates leave it untouched.
func (r *ServiceRequest) TransitionTo(next RequestStatus, now time.Time) error {
	if !next.Valid() {
		return apperrors.NewFieldValidationError([]apperrors.FieldError{{Field: "status", Message: "is not a known status"}})
	}
	if !CanTransition(r.Status, next) {
		return apperrors.NewStateError("status transition not allowed", map[string]any{
			"from": r.Status,
			"to":   next,
		})
	}
	if r.Status == next {
		return nil
	}
	r.Status = next
	if next == StatusCompleted && r.ActualCompletion == nil {
		completedAt := now.UTC()
		r.ActualCompletion = &completedAt
	}
	if next.Terminal() {
		r.clearCode()
	}
	return nil
}

// Assign hands the request to assigneeID and marks it in progress.
func (r *ServiceRequest) Assign(assigneeID string) error {
	if r.Status.Terminal() {
		return apperrors.NewStateError("cannot assign a closed request", map[string]any{"status": r.Status})
	}
	r.AssigneeID = &assigneeID
	r.Status = StatusInProgress
	return nil
}

// AttachFeedback records the owner's rating of a completed request.
func (r *ServiceRequest) AttachFeedback(rating int, feedback string) error {
	if r.Status != StatusCompleted {
		return apperrors.NewStateError("feedback is only accepted on completed requests", map[string]any{"status": r.Status})
	}
	if rating < MinRating || rating > MaxRating {
		return apperrors.NewFieldValidationError([]apperrors.FieldError{{Field: "rating", Message: "must be between 1 and 5"}})
	}
	r.Rating = &rating
	text := strings.TrimSpace(feedback)
	if text == "" {
		r.Feedback = nil
	} else {
		r.Feedback = &text
	}
	return nil
}

// IssueCode stores a fresh verification code, replacing any previous one.
func (r *ServiceRequest) IssueCode(code string, now time.Time) (time.Time, error) {
	if r.ServiceType != ServiceCleaning {
		return time.Time{}, apperrors.NewStateError("verification codes are only issued for cleaning requests", map[string]any{"service_type": r.ServiceType})
	}
	if r.Status.Terminal() {
		return time.Time{}, apperrors.NewStateError("cannot issue a code for a closed request", map[string]any{"status": r.Status})
	}
	expiresAt := now.UTC().Add(OTPValidity)
	r.VerificationCode = &code
	r.CodeExpiresAt = &expiresAt
	return expiresAt, nil
}

// VerifyCode checks submitted against the stored code and completes the
// request on success. An expired code is cleared even though an error is
// returned, so callers must persist the request in both cases.
func (r *ServiceRequest) VerifyCode(submitted string, now time.Time) error {
	if r.ServiceType != ServiceCleaning {
		return apperrors.NewStateError("verification codes are only used for cleaning requests", map[string]any{"service_type": r.ServiceType})
	}
	if r.VerificationCode == nil || *r.VerificationCode == "" {
		return apperrors.NewOTPError(apperrors.CodeOTPNotIssued, "no verification code issued")
	}
	if r.Status.Terminal() {
		r.clearCode()
		return apperrors.NewStateError("request is already closed", map[string]any{"status": r.Status})
	}
	if r.CodeExpiresAt == nil || now.After(*r.CodeExpiresAt) {
		r.clearCode()
		return apperrors.NewOTPError(apperrors.CodeOTPExpired, "verification code expired")
	}
	if subtle.ConstantTimeCompare([]byte(*r.VerificationCode), []byte(submitted)) != 1 {
		return apperrors.NewOTPError(apperrors.CodeOTPMismatch, "verification code does not match")
	}
	return r.TransitionTo(StatusCompleted, now)
}

func (r *ServiceRequest) clearCode() {
	r.VerificationCode = nil
	r.CodeExpiresAt = nil
}

package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/events"
	"github.com/spec-kit/hostel-service/internal/observability"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// OTPService issues and checks the verification codes that gate completion
// of cleaning requests.
type OTPService struct {
	requests *RequestService
	limiter  auth.AttemptLimiter
	generate func() (string, error)
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// OTPDependencies bundles collaborators of OTPService.
type OTPDependencies struct {
	Requests *RequestService
	Limiter  auth.AttemptLimiter
	// Generator defaults to auth.GenerateOTP.
	Generator func() (string, error)
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// OTPIssue is the code handed to staff together with its expiry.
type OTPIssue struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewOTPService constructs the service.
func NewOTPService(deps OTPDependencies) *OTPService {
	s := &OTPService{
		requests: deps.Requests,
		limiter:  deps.Limiter,
		generate: deps.Generator,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	if s.generate == nil {
		s.generate = auth.GenerateOTP
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Generate issues a fresh code for a cleaning request, replacing any
// previous one. Staff and admins only.
func (s *OTPService) Generate(ctx context.Context, actor *domain.User, id string) (*OTPIssue, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkID(id, "service request"); err != nil {
		return nil, err
	}
	code, err := s.generate()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var expiresAt time.Time
	updated, err := s.requests.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
		var issueErr error
		expiresAt, issueErr = req.IssueCode(code, s.requests.now())
		return issueErr
	})
	if err != nil {
		return nil, storeError(err, "service request", id)
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, id); err != nil {
			s.logger.Warn("failed to reset otp attempts", zap.String("request_id", id), zap.Error(err))
		}
	}

	s.requests.recordHistory(ctx, actor, updated.ID, domain.ChangeTypeCode, nil, map[string]any{"expires_at": expiresAt})
	s.requests.publish(ctx, actor, updated, events.EventRequestCodeIssued, events.RequestCodeIssuedPayload{ExpiresAt: expiresAt})
	return &OTPIssue{Code: code, ExpiresAt: expiresAt}, nil
}

// Verify checks submitted against the stored code and completes the request
// on success. Only the owner may verify.
func (s *OTPService) Verify(ctx context.Context, actor *domain.User, id, submitted string) (*domain.ServiceRequest, error) {
	req, err := s.requests.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden(apperrors.CodeAccessDenied, "only the owner may verify a request")
	}
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return nil, apperrors.NewFieldValidationError([]apperrors.FieldError{{Field: "otp", Message: "is required"}})
	}
	if s.limiter != nil {
		if err := s.limiter.Hit(ctx, id); err != nil {
			s.metrics.OTPVerification("throttled")
			return nil, err
		}
	}

	var (
		before    domain.ServiceRequest
		verifyErr error
	)
	updated, err := s.requests.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
		before = *req
		verifyErr = req.VerifyCode(submitted, s.requests.now())
		if verifyErr != nil && !codeCleared(&before, req) {
			return verifyErr
		}
		// An expired or stale code is cleared and persisted even though
		// verification fails.
		return nil
	})
	if err != nil {
		s.metrics.OTPVerification(outcomeOf(err))
		return nil, storeError(err, "service request", id)
	}
	if verifyErr != nil {
		s.metrics.OTPVerification(outcomeOf(verifyErr))
		return nil, verifyErr
	}

	s.metrics.OTPVerification("success")
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, id); err != nil {
			s.logger.Warn("failed to reset otp attempts", zap.String("request_id", id), zap.Error(err))
		}
	}
	s.requests.statusChanged(ctx, actor, before.Status, updated, "otp")
	return updated, nil
}

func codeCleared(before, after *domain.ServiceRequest) bool {
	return before.VerificationCode != nil && after.VerificationCode == nil
}

func outcomeOf(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeOTPExpired):
		return "expired"
	case apperrors.HasCode(err, apperrors.CodeOTPMismatch):
		return "mismatch"
	case apperrors.HasCode(err, apperrors.CodeOTPNotIssued):
		return "not_issued"
	case apperrors.IsKind(err, apperrors.KindState):
		return "invalid_state"
	default:
		return "error"
	}
}

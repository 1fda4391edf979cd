package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/repository"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput is the self-registration payload. New accounts are students.
type RegisterInput struct {
	Email    string
	Password string
	Profile  ProfileInput
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a student account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	user := &domain.User{Role: domain.RoleStudent, Active: true}
	var fields []apperrors.FieldError

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	user.Email = email
	if len(input.Password) < auth.MinPasswordLength {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if input.Profile.Name == nil {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "is required"})
	}
	fields = append(fields, applyProfile(user, input.Profile)...)
	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, storeError(err, "user", "")
	}
	return s.issue(user)
}

// Login verifies credentials of an active account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "invalid email or password")
		}
		return nil, storeError(err, "user", "")
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "invalid email or password")
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized(apperrors.CodeUserDeactivated, "account is deactivated")
	}
	return s.issue(user)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return apperrors.NewFieldValidationError([]apperrors.FieldError{{Field: "new_password", Message: "must be at least 6 characters"}})
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return storeError(err, "user", actor.ID)
	}
	ok, err := auth.CheckPassword(user.PasswordHash, current)
	if err != nil || !ok {
		return apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "current password is incorrect")
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return storeError(s.users.Update(ctx, user), "user", user.ID)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

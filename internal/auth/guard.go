package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/repository"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// Guard resolves bearer credentials to users and evaluates access predicates.
type Guard struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewGuard constructs a guard.
func NewGuard(tokens *TokenManager, users repository.UserRepository) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate resolves an Authorization header value to an active user.
func (g *Guard) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperrors.NewUnauthorized(apperrors.CodeMissingCredential, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "invalid authorization header")
	}

	claims, err := g.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "invalid or expired token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidCredential, "invalid token subject")
	}

	user, err := g.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(apperrors.CodeUserNotFound, "user not found")
		}
		return nil, apperrors.NewUnavailable(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized(apperrors.CodeUserDeactivated, "account is deactivated")
	}
	return user, nil
}

// AuthorizeRole passes when user holds one of roles.
func (g *Guard) AuthorizeRole(user *domain.User, roles ...domain.Role) error {
	return AuthorizeRole(user, roles...)
}

// AuthorizeOwnerOrElevated passes for staff and admins, or when user owns the resource.
func (g *Guard) AuthorizeOwnerOrElevated(user *domain.User, ownerID string) error {
	return AuthorizeOwnerOrElevated(user, ownerID)
}

// AuthorizeRole passes when user holds one of roles.
func AuthorizeRole(user *domain.User, roles ...domain.Role) error {
	if user != nil {
		for _, role := range roles {
			if user.Role == role {
				return nil
			}
		}
	}
	return apperrors.NewForbidden(apperrors.CodeRoleNotPermitted, "role not permitted for this action")
}

// AuthorizeOwnerOrElevated compares against the owner recorded on the loaded
// resource, never a caller supplied identifier.
func AuthorizeOwnerOrElevated(user *domain.User, ownerID string) error {
	if user != nil && (user.Role.Elevated() || user.ID == ownerID) {
		return nil
	}
	return apperrors.NewForbidden(apperrors.CodeAccessDenied, "access denied")
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/repository"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// UserService manages profiles and admin user administration.
type UserService struct {
	users  repository.UserRepository
	policy config.RequestsConfig
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, policy config.RequestsConfig) *UserService {
	return &UserService{users: users, policy: policy}
}

// UserQuery filters admin user listings.
type UserQuery struct {
	Role   *domain.Role
	Block  *domain.Block
	Active *bool
	Search *string
	Page   int
	Limit  int
}

// AdminUserUpdate lets an admin change role, active flag and profile.
type AdminUserUpdate struct {
	Role    *domain.Role
	Active  *bool
	Profile ProfileInput
}

// Profile returns the caller's current record.
func (s *UserService) Profile(ctx context.Context, actor *domain.User) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeError(err, "user", actor.ID)
	}
	return user, nil
}

// UpdateProfile changes the caller's own profile. Role and email are not editable here.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeError(err, "user", actor.ID)
	}
	if fields := applyProfile(user, input); len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "user", user.ID)
	}
	return user, nil
}

// BlockResidents lists active residents of block other than the caller.
func (s *UserService) BlockResidents(ctx context.Context, actor *domain.User, block string, page, limit int) ([]domain.User, Page, error) {
	b := domain.Block(strings.ToUpper(strings.TrimSpace(block)))
	if !b.Valid() {
		return nil, Page{}, apperrors.NewFieldValidationError([]apperrors.FieldError{{Field: "block", Message: "is not a known block"}})
	}
	active := true
	page, limit = resolvePage(page, limit, s.policy.DefaultPageSize, s.policy.MaxPageSize)
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Block:     &b,
		Active:    &active,
		ExcludeID: &actor.ID,
		Limit:     limit,
		Offset:    offsetOf(page, limit),
	})
	if err != nil {
		return nil, Page{}, storeError(err, "user", "")
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, newPage(page, limit, total), nil
}

// ListUsers lists accounts for admins.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, query UserQuery) ([]domain.User, Page, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, Page{}, err
	}
	page, limit := resolvePage(query.Page, query.Limit, staffDefaultPageSize, s.policy.MaxPageSize)
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:   query.Role,
		Block:  query.Block,
		Active: query.Active,
		Search: query.Search,
		Limit:  limit,
		Offset: offsetOf(page, limit),
	})
	if err != nil {
		return nil, Page{}, storeError(err, "user", "")
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, newPage(page, limit, total), nil
}

// GetUser returns any account for admins.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// UpdateUser applies admin changes. Admins cannot change their own role or
// deactivate themselves.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, input AdminUserUpdate) (*domain.User, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := applyProfile(user, input.Profile)
	if input.Role != nil {
		switch {
		case !input.Role.Valid():
			fields = append(fields, apperrors.FieldError{Field: "role", Message: "must be one of student, staff, admin"})
		case user.ID == actor.ID && *input.Role != user.Role:
			return nil, apperrors.NewForbidden(apperrors.CodeRoleNotPermitted, "admins cannot change their own role")
		default:
			user.Role = *input.Role
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields)
	}
	if input.Active != nil && !*input.Active && user.ID == actor.ID {
		return nil, apperrors.NewForbidden(apperrors.CodeRoleNotPermitted, "admins cannot deactivate themselves")
	}
	// A refused deactivation must leave the profile unwritten.
	if input.Active != nil && *input.Active != user.Active {
		if err := s.setActive(ctx, actor, user.ID, *input.Active); err != nil {
			return nil, err
		}
		user.Active = *input.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "user", user.ID)
	}
	return user, nil
}

// Deactivate soft-disables an account. Accounts owning pending or
// in-progress requests are refused.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, id string) error {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.setActive(ctx, actor, id, false)
}

func (s *UserService) setActive(ctx context.Context, actor *domain.User, id string, active bool) error {
	if !active && id == actor.ID {
		return apperrors.NewForbidden(apperrors.CodeRoleNotPermitted, "admins cannot deactivate themselves")
	}
	err := s.users.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrHasActiveRequests) {
		return apperrors.NewConflict("user owns active service requests", map[string]any{"user_id": id})
	}
	return storeError(err, "user", id)
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", id)
	}
	return user, nil
}

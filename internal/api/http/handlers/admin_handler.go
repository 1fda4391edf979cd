package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/api/dto"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/service"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// AdminHandler serves the dashboard and user administration.
type AdminHandler struct {
	users     *service.UserService
	dashboard *service.DashboardService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, dashboard *service.DashboardService) *AdminHandler {
	return &AdminHandler{users: users, dashboard: dashboard}
}

// Dashboard GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboard.AdminDashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminDashboardResponse(dash)})
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	query, err := parseUserQuery(c)
	if err != nil {
		return err
	}
	users, page, err := h.users.ListUsers(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return respondList(c, items, page)
}

// GetUser GET /api/admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateUser PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AdminUserUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), actor, c.Params("id"), service.AdminUserUpdate{
		Role:    req.Role,
		Active:  req.IsActive,
		Profile: profileInput(req.ProfileRequest),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeactivateUser DELETE /api/admin/users/:id.
func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Deactivate(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id"), "is_active": false}})
}

func parseUserQuery(c *fiber.Ctx) (service.UserQuery, error) {
	query := service.UserQuery{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 0),
	}
	var fields []apperrors.FieldError
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if role.Valid() {
			query.Role = &role
		} else {
			fields = append(fields, apperrors.FieldError{Field: "role", Message: "must be one of student, staff, admin"})
		}
	}
	if raw := strings.TrimSpace(c.Query("block")); raw != "" {
		block := domain.Block(strings.ToUpper(raw))
		if block.Valid() {
			query.Block = &block
		} else {
			fields = append(fields, apperrors.FieldError{Field: "block", Message: "is not a known block"})
		}
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "is_active", Message: "must be true or false"})
		} else {
			query.Active = &active
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query.Search = &search
	}
	if len(fields) > 0 {
		return service.UserQuery{}, apperrors.NewFieldValidationError(fields)
	}
	return query, nil
}

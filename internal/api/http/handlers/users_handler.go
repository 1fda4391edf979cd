package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/api/dto"
	"github.com/spec-kit/hostel-service/internal/service"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// UsersHandler serves the caller's own account endpoints.
type UsersHandler struct {
	users     *service.UserService
	auth      *service.AuthService
	dashboard *service.DashboardService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, authService *service.AuthService, dashboard *service.DashboardService) *UsersHandler {
	return &UsersHandler{users: users, auth: authService, dashboard: dashboard}
}

// Me GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateMe PUT /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), actor, profileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Stats GET /api/users/me/stats.
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboard.UserStats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ChangePassword PUT /api/users/me/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// BlockResidents GET /api/users/block/:block.
func (h *UsersHandler) BlockResidents(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	residents, page, err := h.users.BlockResidents(c.UserContext(), actor, c.Params("block"), parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.ResidentResponse, 0, len(residents))
	for i := range residents {
		items = append(items, dto.NewResidentResponse(&residents[i]))
	}
	return respondList(c, items, page)
}

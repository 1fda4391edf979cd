package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/api/dto"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/service"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// RequestsHandler manages service request endpoints.
type RequestsHandler struct {
	requests *service.RequestService
	otp      *service.OTPService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, otp *service.OTPService) *RequestsHandler {
	return &RequestsHandler{requests: requests, otp: otp}
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	created, err := h.requests.Create(c.UserContext(), actor, domain.NewRequestParams{
		ServiceType: req.ServiceType,
		Priority:    req.Priority,
		Title:       req.Title,
		Description: req.Description,
		Details:     req.ServiceDetails,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(created)})
}

// Mine GET /api/requests/mine.
func (h *RequestsHandler) Mine(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	query, err := parseRequestQuery(c)
	if err != nil {
		return err
	}
	items, page, err := h.requests.ListOwn(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	return respondList(c, dto.NewRequestList(items), page)
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	query, err := parseRequestQuery(c)
	if err != nil {
		return err
	}
	items, page, err := h.requests.List(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	return respondList(c, dto.NewRequestList(items), page)
}

// Get GET /api/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// Update PATCH /api/requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.requests.Update(c.UserContext(), actor, c.Params("id"), service.RequestUpdate{
		Status:              req.Status,
		Priority:            req.Priority,
		AssigneeID:          req.AssignedTo,
		EstimatedCompletion: req.EstimatedCompletion,
		Title:               req.Title,
		Description:         req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// Cancel POST /api/requests/:id/cancel.
func (h *RequestsHandler) Cancel(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	cancelled, err := h.requests.Cancel(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(cancelled)})
}

// Feedback POST /api/requests/:id/feedback.
func (h *RequestsHandler) Feedback(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.requests.AttachFeedback(c.UserContext(), actor, c.Params("id"), req.Rating, req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// GenerateOTP POST /api/requests/:id/otp.
func (h *RequestsHandler) GenerateOTP(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	issue, err := h.otp.Generate(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issue})
}

// VerifyOTP POST /api/requests/:id/otp/verify.
func (h *RequestsHandler) VerifyOTP(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	verified, err := h.otp.Verify(c.UserContext(), actor, c.Params("id"), req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(verified)})
}

// BulkAssign POST /api/requests/bulk-assign.
func (h *RequestsHandler) BulkAssign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkAssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var fields []apperrors.FieldError
	if len(req.RequestIDs) == 0 {
		fields = append(fields, apperrors.FieldError{Field: "request_ids", Message: "must not be empty"})
	}
	if req.AssignedTo == "" {
		fields = append(fields, apperrors.FieldError{Field: "assigned_to", Message: "is required"})
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError(fields)
	}
	result, err := h.requests.BulkAssign(c.UserContext(), actor, req.RequestIDs, req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// History GET /api/requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.requests.ListHistory(c.UserContext(), actor, c.Params("id"), parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryList(entries)})
}

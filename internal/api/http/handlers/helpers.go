package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/api/dto"
	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/service"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized(apperrors.CodeMissingCredential, "authentication required")
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRequestQuery reads list filters. Unknown enum values are rejected
// together rather than silently matching nothing.
func parseRequestQuery(c *fiber.Ctx) (service.RequestQuery, error) {
	query := service.RequestQuery{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 0),
	}
	var fields []apperrors.FieldError
	for _, raw := range splitList(c.Query("status")) {
		status := domain.RequestStatus(raw)
		if !status.Valid() {
			fields = append(fields, apperrors.FieldError{Field: "status", Message: "unknown status " + raw})
			continue
		}
		query.Statuses = append(query.Statuses, status)
	}
	for _, raw := range splitList(c.Query("service_type")) {
		st := domain.ServiceType(raw)
		if !st.Valid() {
			fields = append(fields, apperrors.FieldError{Field: "service_type", Message: "unknown service type " + raw})
			continue
		}
		query.ServiceTypes = append(query.ServiceTypes, st)
	}
	for _, raw := range splitList(c.Query("priority")) {
		p := domain.RequestPriority(raw)
		if !p.Valid() {
			fields = append(fields, apperrors.FieldError{Field: "priority", Message: "unknown priority " + raw})
			continue
		}
		query.Priorities = append(query.Priorities, p)
	}
	if raw := strings.TrimSpace(c.Query("block")); raw != "" {
		block := domain.Block(strings.ToUpper(raw))
		if block.Valid() {
			query.Block = &block
		} else {
			fields = append(fields, apperrors.FieldError{Field: "block", Message: "is not a known block"})
		}
	}
	if assignee := strings.TrimSpace(c.Query("assigned_to")); assignee != "" {
		query.AssigneeID = &assignee
	}
	if len(fields) > 0 {
		return service.RequestQuery{}, apperrors.NewFieldValidationError(fields)
	}
	return query, nil
}

func profileInput(req dto.ProfileRequest) service.ProfileInput {
	return service.ProfileInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Block:      req.HostelBlock,
		RoomNumber: req.RoomNumber,
		RoomType:   req.RoomType,
		ACType:     req.ACType,
		HostelType: req.HostelType,
	}
}

func respondList(c *fiber.Ctx, data any, page service.Page) error {
	return c.JSON(fiber.Map{"data": data, "pagination": page})
}

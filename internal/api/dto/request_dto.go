package dto

import (
	"time"

	"github.com/spec-kit/hostel-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	ServiceType    domain.ServiceType     `json:"service_type"`
	Priority       domain.RequestPriority `json:"priority"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	ServiceDetails domain.DetailsInput    `json:"service_details"`
}

// UpdateRequestRequest payload for staff changes.
type UpdateRequestRequest struct {
	Status              *domain.RequestStatus   `json:"status"`
	Priority            *domain.RequestPriority `json:"priority"`
	AssignedTo          *string                 `json:"assigned_to"`
	EstimatedCompletion *time.Time              `json:"estimated_completion"`
	Title               *string                 `json:"title"`
	Description         *string                 `json:"description"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// VerifyOTPRequest payload.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// BulkAssignRequest payload.
type BulkAssignRequest struct {
	RequestIDs []string `json:"request_ids"`
	AssignedTo string   `json:"assigned_to"`
}

// RequestResponse is the public view of a service request. The
// verification code itself is never returned here.
type RequestResponse struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	ServiceType         domain.ServiceType     `json:"service_type"`
	Status              domain.RequestStatus   `json:"status"`
	Priority            domain.RequestPriority `json:"priority"`
	Title               string                 `json:"title"`
	Description         string                 `json:"description"`
	Location            domain.Location        `json:"location"`
	ServiceDetails      domain.ServiceDetails  `json:"service_details"`
	AssignedTo          *string                `json:"assigned_to"`
	EstimatedCompletion *time.Time             `json:"estimated_completion"`
	ActualCompletion    *time.Time             `json:"actual_completion"`
	OTPPending          bool                   `json:"otp_pending"`
	OTPExpiresAt        *time.Time             `json:"otp_expires_at,omitempty"`
	Rating              *int                   `json:"rating"`
	Feedback            *string                `json:"feedback"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID         string            `json:"id"`
	RequestID  string            `json:"request_id"`
	ChangedBy  *string           `json:"changed_by"`
	ChangeType domain.ChangeType `json:"change_type"`
	OldValue   map[string]any    `json:"old_value,omitempty"`
	NewValue   map[string]any    `json:"new_value,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewRequestResponse maps a request.
func NewRequestResponse(req *domain.ServiceRequest) RequestResponse {
	return RequestResponse{
		ID:                  req.ID,
		UserID:              req.OwnerID,
		ServiceType:         req.ServiceType,
		Status:              req.Status,
		Priority:            req.Priority,
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		ServiceDetails:      req.Details,
		AssignedTo:          req.AssigneeID,
		EstimatedCompletion: req.EstimatedCompletion,
		ActualCompletion:    req.ActualCompletion,
		OTPPending:          req.VerificationCode != nil,
		OTPExpiresAt:        req.CodeExpiresAt,
		Rating:              req.Rating,
		Feedback:            req.Feedback,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}
}

// NewRequestList maps a page of requests.
func NewRequestList(reqs []domain.ServiceRequest) []RequestResponse {
	items := make([]RequestResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, NewRequestResponse(&reqs[i]))
	}
	return items
}

// NewHistoryList maps audit entries.
func NewHistoryList(entries []domain.RequestHistory) []HistoryResponse {
	items := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryResponse{
			ID:         e.ID,
			RequestID:  e.RequestID,
			ChangedBy:  e.ChangedByID,
			ChangeType: e.ChangeType,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return items
}

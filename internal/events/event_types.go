package events

import (
	"time"

	"github.com/spec-kit/hostel-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestCodeIssued    EventType = "request_code_issued"
	EventRequestFeedbackAdded EventType = "request_feedback_added"
)

// AllEventTypes lists every event type.
var AllEventTypes = []EventType{
	EventRequestCreated,
	EventRequestStatusChanged,
	EventRequestAssigned,
	EventRequestCodeIssued,
	EventRequestFeedbackAdded,
}

// Actor identifies who caused an event. A nil UserID means the system.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	OwnerID   string      `json:"owner_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	ServiceType domain.ServiceType     `json:"service_type"`
	Priority    domain.RequestPriority `json:"priority"`
	Title       string                 `json:"title"`
	Location    domain.Location        `json:"location"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Via       string               `json:"via,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	AssigneeID    string  `json:"assignee_id"`
	Bulk          bool    `json:"bulk,omitempty"`
}

// RequestCodeIssuedPayload payload. The code itself is never carried.
type RequestCodeIssuedPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestFeedbackAddedPayload payload.
type RequestFeedbackAddedPayload struct {
	Rating int `json:"rating"`
}

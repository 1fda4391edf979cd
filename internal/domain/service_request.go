package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// ServiceType enumerates the services a resident can request.
type ServiceType string

const (
	ServiceCleaning       ServiceType = "cleaning"
	ServiceLaundry        ServiceType = "laundry"
	ServiceElectrical     ServiceType = "electrical"
	ServiceCarpenter      ServiceType = "carpenter"
	ServiceWifi           ServiceType = "wifi"
	ServiceMess           ServiceType = "mess"
	ServiceRoomAllocation ServiceType = "room-allocation"
)

// ServiceTypes lists every service type.
var ServiceTypes = []ServiceType{
	ServiceCleaning, ServiceLaundry, ServiceElectrical, ServiceCarpenter,
	ServiceWifi, ServiceMess, ServiceRoomAllocation,
}

func (t ServiceType) Valid() bool {
	for _, candidate := range ServiceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []RequestStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Location is a block and room pair.
type Location struct {
	Block      Block  `json:"block"`
	RoomNumber string `json:"room_number"`
}

// ServiceRequest is the aggregate tracked through the request lifecycle.
type ServiceRequest struct {
	ID                  string
	OwnerID             string
	ServiceType         ServiceType
	Status              RequestStatus
	Priority            RequestPriority
	Title               string
	Description         string
	Location            Location
	Details             ServiceDetails
	AssigneeID          *string
	EstimatedCompletion *time.Time
	ActualCompletion    *time.Time
	VerificationCode    *string
	CodeExpiresAt       *time.Time
	Rating              *int
	Feedback            *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewRequestParams is the creation payload of a service request.
type NewRequestParams struct {
	ServiceType ServiceType
	Priority    RequestPriority
	Title       string
	Description string
	Details     DetailsInput
}

// NewServiceRequest validates params and builds a pending request owned by owner.
// Every failing field is reported in a single validation error.
func NewServiceRequest(owner *User, params NewRequestParams) (*ServiceRequest, error) {
	var fields []apperrors.FieldError

	title := strings.TrimSpace(params.Title)
	if title == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "is required"})
	}
	description := strings.TrimSpace(params.Description)
	if description == "" {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "is required"})
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	} else if !priority.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "priority", Message: "must be one of low, medium, high, urgent"})
	}

	location, ok := owner.Location()
	if !ok {
		fields = append(fields, apperrors.FieldError{Field: "location", Message: "profile has no block and room number"})
	} else if !location.Block.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "location.block", Message: "is not a known block"})
	}

	var details ServiceDetails
	if !params.ServiceType.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "service_type", Message: "is not a known service type"})
	} else {
		var detailErrs []apperrors.FieldError
		details, detailErrs = BuildDetails(params.ServiceType, params.Details)
		fields = append(fields, detailErrs...)
	}

	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields)
	}

	return &ServiceRequest{
		OwnerID:     owner.ID,
		ServiceType: params.ServiceType,
		Status:      StatusPending,
		Priority:    priority,
		Title:       title,
		Description: description,
		Location:    location,
		Details:     details,
	}, nil
}

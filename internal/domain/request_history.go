package domain

import "time"

// ChangeType captures what changed in a history entry.
type ChangeType string

const (
	ChangeTypeStatus   ChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee ChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority ChangeType = "PRIORITY_CHANGE"
	ChangeTypeFeedback ChangeType = "FEEDBACK_ADDED"
	ChangeTypeCode     ChangeType = "CODE_ISSUED"
)

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID          string
	RequestID   string
	ChangedByID *string
	ChangeType  ChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}

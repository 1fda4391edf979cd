package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/events"
	"github.com/spec-kit/hostel-service/internal/observability"
	"github.com/spec-kit/hostel-service/internal/repository"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// MaxBulkAssign bounds the number of ids accepted by one bulk assignment.
const MaxBulkAssign = 100

const staffDefaultPageSize = 20

// RequestService coordinates the service request lifecycle.
type RequestService struct {
	requests   repository.ServiceRequestRepository
	users      repository.UserRepository
	history    repository.RequestHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	policy     config.RequestsConfig
	now        func() time.Time
}

// RequestDependencies bundles collaborators of RequestService.
type RequestDependencies struct {
	RequestRepo repository.ServiceRequestRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.RequestHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Policy      config.RequestsConfig
	Clock       func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	s := &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		policy:     deps.Policy,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RequestQuery filters request listings.
type RequestQuery struct {
	Statuses     []domain.RequestStatus
	ServiceTypes []domain.ServiceType
	Priorities   []domain.RequestPriority
	Block        *domain.Block
	AssigneeID   *string
	Page         int
	Limit        int
}

// RequestUpdate carries the fields staff may change. Nil fields are left alone.
type RequestUpdate struct {
	Status              *domain.RequestStatus
	Priority            *domain.RequestPriority
	AssigneeID          *string
	EstimatedCompletion *time.Time
	Title               *string
	Description         *string
}

// BulkAssignResult reports how many requests a bulk assignment changed.
type BulkAssignResult struct {
	Requested int `json:"requested"`
	Modified  int `json:"modified"`
}

// Create validates the payload and stores a pending request owned by actor.
func (s *RequestService) Create(ctx context.Context, actor *domain.User, params domain.NewRequestParams) (*domain.ServiceRequest, error) {
	req, err := domain.NewServiceRequest(actor, params)
	if err != nil {
		return nil, err
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, storeError(err, "user", actor.ID)
	}
	s.metrics.RequestCreated(string(req.ServiceType))
	s.publish(ctx, actor, req, events.EventRequestCreated, events.RequestCreatedPayload{
		ServiceType: req.ServiceType,
		Priority:    req.Priority,
		Title:       req.Title,
		Location:    req.Location,
	})
	return req, nil
}

// Get returns a request visible to actor. A missing request is reported
// before any access decision.
func (s *RequestService) Get(ctx context.Context, actor *domain.User, id string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwnerOrElevated(actor, req.OwnerID); err != nil {
		return nil, err
	}
	return req, nil
}

// ListOwn lists requests owned by actor.
func (s *RequestService) ListOwn(ctx context.Context, actor *domain.User, query RequestQuery) ([]domain.ServiceRequest, Page, error) {
	page, limit := resolvePage(query.Page, query.Limit, s.policy.DefaultPageSize, s.policy.MaxPageSize)
	filter := s.filterFor(query, page, limit)
	filter.OwnerID = &actor.ID
	return s.list(ctx, filter, page, limit)
}

// List lists every request matching query. Staff and admins only.
func (s *RequestService) List(ctx context.Context, actor *domain.User, query RequestQuery) ([]domain.ServiceRequest, Page, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, Page{}, err
	}
	page, limit := resolvePage(query.Page, query.Limit, staffDefaultPageSize, s.policy.MaxPageSize)
	return s.list(ctx, s.filterFor(query, page, limit), page, limit)
}

func (s *RequestService) filterFor(query RequestQuery, page, limit int) repository.RequestFilter {
	return repository.RequestFilter{
		AssigneeID:   query.AssigneeID,
		Statuses:     query.Statuses,
		ServiceTypes: query.ServiceTypes,
		Priorities:   query.Priorities,
		Block:        query.Block,
		Limit:        limit,
		Offset:       offsetOf(page, limit),
	}
}

func (s *RequestService) list(ctx context.Context, filter repository.RequestFilter, page, limit int) ([]domain.ServiceRequest, Page, error) {
	items, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, Page{}, storeError(err, "service request", "")
	}
	if items == nil {
		items = []domain.ServiceRequest{}
	}
	return items, newPage(page, limit, total), nil
}

// Update applies staff changes to a request in one atomic step.
func (s *RequestService) Update(ctx context.Context, actor *domain.User, id string, input RequestUpdate) (*domain.ServiceRequest, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := validateUpdate(input); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	var before domain.ServiceRequest
	updated, err := s.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
		before = *req
		if req.Status.Terminal() && touchesContent(input) {
			return apperrors.NewStateError("closed requests cannot be modified", map[string]any{"status": req.Status})
		}
		if input.Title != nil {
			req.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			req.Description = strings.TrimSpace(*input.Description)
		}
		if input.Priority != nil {
			req.Priority = *input.Priority
		}
		if input.EstimatedCompletion != nil {
			estimated := input.EstimatedCompletion.UTC()
			req.EstimatedCompletion = &estimated
		}
		if input.AssigneeID != nil {
			if err := req.Assign(*input.AssigneeID); err != nil {
				return err
			}
		}
		if input.Status != nil {
			if err := req.TransitionTo(*input.Status, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "service request", id)
	}

	s.recordChanges(ctx, actor, &before, updated, false)
	return updated, nil
}

// Cancel moves a request to cancelled. Staff and admins may always cancel;
// owners only when the owner-cancel policy is enabled.
func (s *RequestService) Cancel(ctx context.Context, actor *domain.User, id string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Elevated() {
		if err := auth.AuthorizeOwnerOrElevated(actor, req.OwnerID); err != nil {
			return nil, err
		}
		if !s.policy.AllowOwnerCancel {
			return nil, apperrors.NewForbidden(apperrors.CodeRoleNotPermitted, "owners may not cancel requests")
		}
	}

	var before domain.ServiceRequest
	updated, err := s.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
		before = *req
		if req.Status == domain.StatusCancelled {
			return apperrors.NewStateError("request is already cancelled", nil)
		}
		return req.TransitionTo(domain.StatusCancelled, s.now())
	})
	if err != nil {
		return nil, storeError(err, "service request", id)
	}
	s.recordChanges(ctx, actor, &before, updated, false)
	return updated, nil
}

// AttachFeedback records the owner's rating of a completed request.
func (s *RequestService) AttachFeedback(ctx context.Context, actor *domain.User, id string, rating int, feedback string) (*domain.ServiceRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden(apperrors.CodeAccessDenied, "only the owner may rate a request")
	}

	updated, err := s.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
		return req.AttachFeedback(rating, feedback)
	})
	if err != nil {
		return nil, storeError(err, "service request", id)
	}

	s.recordHistory(ctx, actor, updated.ID, domain.ChangeTypeFeedback, nil, map[string]any{
		"rating":   rating,
		"feedback": updated.Feedback,
	})
	s.publish(ctx, actor, updated, events.EventRequestFeedbackAdded, events.RequestFeedbackAddedPayload{Rating: rating})
	return updated, nil
}

// BulkAssign hands every listed request to one assignee. Each request is
// updated on its own; unknown, malformed or closed ids are skipped.
func (s *RequestService) BulkAssign(ctx context.Context, actor *domain.User, ids []string, assigneeID string) (BulkAssignResult, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return BulkAssignResult{}, err
	}
	var fields []apperrors.FieldError
	if len(ids) == 0 {
		fields = append(fields, apperrors.FieldError{Field: "request_ids", Message: "must not be empty"})
	} else if len(ids) > MaxBulkAssign {
		fields = append(fields, apperrors.FieldError{Field: "request_ids", Message: "must not contain more than 100 ids"})
	}
	if strings.TrimSpace(assigneeID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "assigned_to", Message: "is required"})
	}
	if len(fields) > 0 {
		return BulkAssignResult{}, apperrors.NewFieldValidationError(fields)
	}
	if err := s.checkAssignee(ctx, assigneeID); err != nil {
		return BulkAssignResult{}, err
	}

	unique := dedupe(ids)
	result := BulkAssignResult{Requested: len(unique)}
	for _, id := range unique {
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		var before domain.ServiceRequest
		updated, err := s.requests.Update(ctx, id, func(req *domain.ServiceRequest) error {
			before = *req
			return req.Assign(assigneeID)
		})
		if err != nil {
			mapped := storeError(err, "service request", id)
			if apperrors.IsKind(mapped, apperrors.KindNotFound) || apperrors.IsKind(mapped, apperrors.KindState) {
				continue
			}
			return result, mapped
		}
		result.Modified++
		s.recordChanges(ctx, actor, &before, updated, true)
	}
	return result, nil
}

// ListHistory returns the audit trail of a request. Staff and admins only.
func (s *RequestService) ListHistory(ctx context.Context, actor *domain.User, id string, page, limit int) ([]domain.RequestHistory, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleStaff, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	page, limit = resolvePage(page, limit, staffDefaultPageSize, s.policy.MaxPageSize)
	entries, err := s.history.ListByRequest(ctx, id, limit, offsetOf(page, limit))
	if err != nil {
		return nil, storeError(err, "service request", id)
	}
	if entries == nil {
		entries = []domain.RequestHistory{}
	}
	return entries, nil
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	if err := checkID(id, "service request"); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "service request", id)
	}
	return req, nil
}

// checkAssignee requires an active staff or admin account.
func (s *RequestService) checkAssignee(ctx context.Context, assigneeID string) error {
	conflict := func(reason string) error {
		return apperrors.NewConflict(reason, map[string]any{"assigned_to": assigneeID})
	}
	if _, err := uuid.Parse(assigneeID); err != nil {
		return conflict("assignee does not exist")
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		mapped := storeError(err, "user", assigneeID)
		if apperrors.IsKind(mapped, apperrors.KindNotFound) {
			return conflict("assignee does not exist")
		}
		return mapped
	}
	if !assignee.Role.Elevated() {
		return conflict("assignee must be staff or admin")
	}
	if !assignee.Active {
		return conflict("assignee is deactivated")
	}
	return nil
}

func (s *RequestService) recordChanges(ctx context.Context, actor *domain.User, before, after *domain.ServiceRequest, bulk bool) {
	if !sameAssignee(before.AssigneeID, after.AssigneeID) {
		s.recordHistory(ctx, actor, after.ID, domain.ChangeTypeAssignee,
			map[string]any{"assigned_to": before.AssigneeID},
			map[string]any{"assigned_to": after.AssigneeID})
		s.publish(ctx, actor, after, events.EventRequestAssigned, events.RequestAssignedPayload{
			OldAssigneeID: before.AssigneeID,
			AssigneeID:    *after.AssigneeID,
			Bulk:          bulk,
		})
	}
	if before.Priority != after.Priority {
		s.recordHistory(ctx, actor, after.ID, domain.ChangeTypePriority,
			map[string]any{"priority": before.Priority},
			map[string]any{"priority": after.Priority})
	}
	if before.Status != after.Status {
		s.statusChanged(ctx, actor, before.Status, after, "")
	}
}

func (s *RequestService) statusChanged(ctx context.Context, actor *domain.User, old domain.RequestStatus, after *domain.ServiceRequest, via string) {
	s.metrics.StatusChanged(string(old), string(after.Status))
	s.recordHistory(ctx, actor, after.ID, domain.ChangeTypeStatus,
		map[string]any{"status": old},
		map[string]any{"status": after.Status})
	s.publish(ctx, actor, after, events.EventRequestStatusChanged, events.RequestStatusChangedPayload{
		OldStatus: old,
		NewStatus: after.Status,
		Via:       via,
	})
}

// recordHistory writes an audit entry. The change itself is already stored,
// so a failed write is logged rather than returned.
func (s *RequestService) recordHistory(ctx context.Context, actor *domain.User, requestID string, change domain.ChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.RequestHistory{
		RequestID:  requestID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if actor != nil {
		entry.ChangedByID = &actor.ID
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record request history",
			zap.String("request_id", requestID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (s *RequestService) publish(ctx context.Context, actor *domain.User, req *domain.ServiceRequest, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: req.ID,
		OwnerID:   req.OwnerID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if actor != nil {
		event.Actor = events.Actor{UserID: &actor.ID, Role: actor.Role}
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateUpdate(input RequestUpdate) error {
	var fields []apperrors.FieldError
	if input.Status != nil && !input.Status.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "status", Message: "is not a known status"})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "priority", Message: "must be one of low, medium, high, urgent"})
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "must not be empty"})
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "must not be empty"})
	}
	if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "assigned_to", Message: "must not be empty"})
	}
	if input.Status == nil && input.Priority == nil && input.AssigneeID == nil &&
		input.EstimatedCompletion == nil && input.Title == nil && input.Description == nil {
		fields = append(fields, apperrors.FieldError{Field: "body", Message: "at least one field must be provided"})
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError(fields)
	}
	return nil
}

// touchesContent reports whether input edits anything besides status.
func touchesContent(input RequestUpdate) bool {
	return input.Priority != nil || input.AssigneeID != nil || input.EstimatedCompletion != nil ||
		input.Title != nil || input.Description != nil
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

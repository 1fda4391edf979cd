package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/events"
)

// NotificationService reacts to request events. Delivery is stubbed and only logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventRequestAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventRequestCodeIssued, n.handleCodeIssued)
	n.dispatcher.Subscribe(events.EventRequestFeedbackAdded, n.handleFeedbackAdded)
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	n.logEvent("RequestCreated", event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logEvent("RequestStatusChanged", event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	n.logEvent("RequestAssigned", event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// The owner has to be told a code is waiting for them.
func (n *NotificationService) handleCodeIssued(ctx context.Context, event events.Event) error {
	n.logEvent("RequestCodeIssued", event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFeedbackAdded(ctx context.Context, event events.Event) error {
	n.logEvent("RequestFeedbackAdded", event)
	return nil
}

func (n *NotificationService) logEvent(name string, event events.Event) {
	n.logger.Info(name,
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("owner_id", event.OwnerID),
		zap.Any("payload", event.Payload))
}

// sendEmailNotificationStub is a placeholder; mail delivery is not implemented.
func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("owner_id", event.OwnerID),
		zap.String("event_type", string(event.Type)))
}

// sendWebhookNotificationStub is a placeholder; webhook delivery is not implemented.
func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}

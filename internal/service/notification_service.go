package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/config"
	"github.com/fixkit/repair-service/internal/events"
)

// NotificationService turns domain events into outbound notifications. When
// no webhook is configured it degrades to structured log lines.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes to the events that produce user-facing
// notifications.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handleEvent)
	n.dispatcher.Subscribe(events.EventReporterNotified, n.handleEvent)
	n.dispatcher.Subscribe(events.EventLoanOverdue, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.postWebhook(ctx, event)
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		n.logger.Warn("webhook rejected",
			zap.String("event_type", string(event.Type)),
			zap.Int("status", resp.StatusCode))
	}
}

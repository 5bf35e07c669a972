package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/cache"
	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/mail"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// Pusher delivers real-time payloads to a user's open connections.
type Pusher interface {
	SendToUser(userID string, payload any) error
}

// Mailer delivers templated alert emails.
type Mailer interface {
	SendSLAAlert(ctx context.Context, to domain.User, alert mail.SLAAlert) error
}

// NotificationService fans an SLA violation out to one recipient across
// channels. The persisted in-app notification is the system of record;
// push and email are advisory and their failures are swallowed.
type NotificationService struct {
	notifications repository.NotificationRepository
	dedup         cache.Dedup
	pusher        Pusher
	mailer        Mailer
	cfg           config.NotificationConfig
	jobName       string
	dedupTTL      time.Duration
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the fan-out.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	Dedup            cache.Dedup
	Pusher           Pusher
	Mailer           Mailer
	Config           config.NotificationConfig
	JobName          string
	DedupTTL         time.Duration
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	ttl := deps.DedupTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		dedup:         deps.Dedup,
		pusher:        deps.Pusher,
		mailer:        deps.Mailer,
		cfg:           deps.Config,
		jobName:       deps.JobName,
		dedupTTL:      ttl,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
}

// NotifySLAViolation gates on the dedup cache, persists the in-app
// notification, then attempts push and email. Only the in-app write may
// fail the call; the dedup key is put after the send so a suppressed
// window always represents a delivered alert.
func (s *NotificationService) NotifySLAViolation(ctx context.Context, violation SLAViolation) error {
	key := cache.ViolationKey(
		violation.Recipient.ID,
		violation.Ticket.ID,
		violation.WorkflowID,
		violation.EventName,
		violation.TargetStateID,
		s.jobName,
	)

	present, err := s.dedup.Contains(ctx, key)
	if err != nil {
		// Cache trouble degrades to at-least-once delivery.
		s.logger.Warn("dedup lookup failed", zap.String("key", key), zap.Error(err))
	}
	if present {
		s.metrics.RecordDedupSuppressed()
		s.logger.Debug("duplicate sla notification suppressed",
			zap.String("ticket_id", violation.Ticket.ID),
			zap.String("recipient_id", violation.Recipient.ID))
		return nil
	}

	link := fmt.Sprintf("%s/tickets/%s", s.cfg.BaseURL, mail.ObfuscateID(violation.Ticket.ID))
	content := fmt.Sprintf("SLA breached for ticket %q (escalation level %d, due %s)",
		violation.Ticket.Title,
		violation.Level,
		violation.SLADueDate.Format(time.RFC3339))

	notification := &domain.Notification{
		UserID:  violation.Recipient.ID,
		Type:    domain.NotificationTypeSLABreach,
		Content: content,
		Link:    link,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.metrics.RecordNotification("in_app", false)
		return fmt.Errorf("persist in-app notification: %w", err)
	}
	s.metrics.RecordNotification("in_app", true)

	if s.pusher != nil {
		payload := map[string]any{
			"type":         domain.NotificationTypeSLABreach,
			"ticket_id":    violation.Ticket.ID,
			"ticket_title": violation.Ticket.Title,
			"level":        violation.Level,
			"due_date":     violation.SLADueDate,
			"link":         link,
		}
		if err := s.pusher.SendToUser(violation.Recipient.ID, payload); err != nil {
			s.metrics.RecordNotification("push", false)
			s.logger.Warn("push delivery failed",
				zap.String("recipient_id", violation.Recipient.ID),
				zap.Error(err))
		} else {
			s.metrics.RecordNotification("push", true)
		}
	}

	if s.mailer != nil {
		alert := mail.SLAAlert{
			TicketTitle: violation.Ticket.Title,
			TicketRef:   mail.ObfuscateID(violation.Ticket.ID),
			TeamID:      violation.Ticket.TeamID,
			Level:       violation.Level,
			DueDate:     violation.SLADueDate,
			Link:        link,
		}
		if err := s.mailer.SendSLAAlert(ctx, violation.Recipient, alert); err != nil {
			s.metrics.RecordNotification("email", false)
			s.logger.Warn("email delivery failed",
				zap.String("recipient_id", violation.Recipient.ID),
				zap.Error(err))
		} else {
			s.metrics.RecordNotification("email", true)
		}
	}

	if err := s.dedup.Put(ctx, key, s.dedupTTL); err != nil {
		s.logger.Warn("dedup put failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// ListForUser returns a user's in-app notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags one notification as read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}

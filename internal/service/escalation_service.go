package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// EscalationService raises the severity of overdue tickets and resolves
// who gets told about it.
type EscalationService struct {
	tickets     repository.TicketRepository
	workflows   repository.WorkflowRepository
	histories   repository.TransitionHistoryRepository
	escalations repository.EscalationRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	notifier    ViolationNotifier
	queue       events.Queue
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// ViolationNotifier delivers an SLA violation alert to one recipient.
type ViolationNotifier interface {
	NotifySLAViolation(ctx context.Context, violation SLAViolation) error
}

// SLAViolation carries everything the fan-out needs for one recipient.
type SLAViolation struct {
	Ticket        *domain.Ticket
	Recipient     domain.User
	Level         int
	SLADueDate    time.Time
	EventName     string
	TargetStateID string
	WorkflowID    string
}

// EscalationDependencies bundles collaborators for the engine.
type EscalationDependencies struct {
	TicketRepo     repository.TicketRepository
	WorkflowRepo   repository.WorkflowRepository
	HistoryRepo    repository.TransitionHistoryRepository
	EscalationRepo repository.EscalationRepository
	TeamRepo       repository.TeamRepository
	UserRepo       repository.UserRepository
	Notifier       ViolationNotifier
	Queue          events.Queue
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &EscalationService{
		tickets:     deps.TicketRepo,
		workflows:   deps.WorkflowRepo,
		histories:   deps.HistoryRepo,
		escalations: deps.EscalationRepo,
		teams:       deps.TeamRepo,
		users:       deps.UserRepo,
		notifier:    deps.Notifier,
		queue:       deps.Queue,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         now,
	}
}

// RegisterHandlers subscribes the engine's bookkeeping to the event queue.
func (s *EscalationService) RegisterHandlers(queue events.Queue) {
	queue.Subscribe(events.EventTicketTransitioned, s.handleTicketTransitioned)
}

// handleTicketTransitioned completes SLA tracking on superseded history
// rows once a ticket moves to a new state.
func (s *EscalationService) handleTicketTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return nil
	}
	return s.histories.CompleteAllExcept(ctx, event.TicketID, payload.HistoryID)
}

// Escalate processes one overdue history row: raise the ticket's
// escalation level (cool-down gated, saturating at the top tier),
// persist tracking, and fan out notifications to the assignee and all
// team managers.
func (s *EscalationService) Escalate(ctx context.Context, history domain.TransitionHistory) error {
	ticket, err := s.tickets.GetByID(ctx, history.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}

	// The ticket moved on since the scan query ran; close out this row
	// instead of escalating a stale violation.
	if ticket.StateID != history.ToStateID {
		return s.histories.UpdateStatus(ctx, history.ID, domain.TransitionStatusCompleted)
	}

	def, err := s.workflows.GetDefinition(ctx, ticket.WorkflowID)
	if err != nil {
		return fmt.Errorf("load workflow: %w", err)
	}

	// Transitions can opt out of escalation; the violation then just
	// closes out its SLA tracking.
	if transition, ok := violatedTransition(def, history); ok && !transition.EscalateOnViolation {
		s.logger.Debug("transition opts out of escalation",
			zap.String("ticket_id", ticket.ID),
			zap.String("event", history.EventName))
		return s.histories.UpdateStatus(ctx, history.ID, domain.TransitionStatusCompleted)
	}

	currentLevel, err := s.escalations.MaxLevelForTicket(ctx, ticket.ID)
	if err != nil {
		return fmt.Errorf("read escalation level: %w", err)
	}

	saturated := currentLevel >= domain.MaxEscalationLevel
	nextLevel := currentLevel + 1
	if saturated {
		nextLevel = domain.MaxEscalationLevel
	}

	now := s.now()
	if currentLevel >= 1 && !saturated {
		last, err := s.escalations.LatestAtLevel(ctx, ticket.ID, currentLevel)
		if err != nil {
			return fmt.Errorf("read last escalation: %w", err)
		}
		if last != nil {
			cooldown := def.Workflow.EscalationTimeout(currentLevel)
			if now.Sub(last.EscalationTime) < cooldown {
				s.logger.Debug("escalation cool-down not elapsed",
					zap.String("ticket_id", ticket.ID),
					zap.Int("level", currentLevel),
					zap.Duration("cooldown", cooldown))
				return nil
			}
		}
	}

	if history.Status != domain.TransitionStatusEscalated {
		if err := s.histories.UpdateStatus(ctx, history.ID, domain.TransitionStatusEscalated); err != nil {
			return fmt.Errorf("mark history escalated: %w", err)
		}
	}

	managers, err := s.teams.ManagersForTeam(ctx, ticket.TeamID)
	if err != nil {
		return fmt.Errorf("resolve team managers: %w", err)
	}

	var escalatedTo *string
	if !saturated && len(managers) > 0 {
		id := managers[(nextLevel-1)%len(managers)].ID
		escalatedTo = &id
	}

	if !saturated {
		tracking := &domain.EscalationTracking{
			TicketID:       ticket.ID,
			Level:          nextLevel,
			EscalatedToID:  escalatedTo,
			EscalationTime: now,
		}
		if err := s.escalations.Create(ctx, tracking); err != nil {
			return fmt.Errorf("persist escalation: %w", err)
		}
		s.metrics.RecordEscalation(nextLevel)
		s.logger.Info("ticket escalated",
			zap.String("ticket_id", ticket.ID),
			zap.Int("level", nextLevel),
			zap.Stringp("escalated_to", escalatedTo))
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		Payload: events.TicketEscalatedPayload{
			Level:         nextLevel,
			EscalatedToID: escalatedTo,
			Priority:      ticket.Priority,
			Status:        domain.TransitionStatusEscalated,
		},
	})

	return s.notifyRecipients(ctx, ticket, history, nextLevel, managers)
}

// notifyRecipients fans out to the assignee plus every team manager. A
// failed recipient does not block the rest; errors are joined.
func (s *EscalationService) notifyRecipients(ctx context.Context, ticket *domain.Ticket, history domain.TransitionHistory, level int, managers []domain.User) error {
	recipients := make([]domain.User, 0, len(managers)+1)
	if ticket.AssigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			s.logger.Warn("assignee lookup failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("assignee_id", *ticket.AssigneeID),
				zap.Error(err))
		} else {
			recipients = append(recipients, *assignee)
		}
	}
	recipients = append(recipients, managers...)

	var dueDate time.Time
	if history.SLADueDate != nil {
		dueDate = *history.SLADueDate
	}

	var errs []error
	for _, recipient := range recipients {
		violation := SLAViolation{
			Ticket:        ticket,
			Recipient:     recipient,
			Level:         level,
			SLADueDate:    dueDate,
			EventName:     history.EventName,
			TargetStateID: history.ToStateID,
			WorkflowID:    ticket.WorkflowID,
		}
		if err := s.notifier.NotifySLAViolation(ctx, violation); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient.ID, err))
		}
	}
	return errors.Join(errs...)
}

// violatedTransition resolves the workflow edge a history row was
// written for. Rows without a source state fall back to matching on
// event name and target state.
func violatedTransition(def *domain.WorkflowDefinition, history domain.TransitionHistory) (*domain.WorkflowTransition, bool) {
	if history.FromStateID != nil {
		return def.FindTransition(*history.FromStateID, history.EventName)
	}
	for i := range def.Transitions {
		t := &def.Transitions[i]
		if t.EventName == history.EventName && t.TargetStateID == history.ToStateID {
			return t, true
		}
	}
	return nil, false
}

func (s *EscalationService) publish(ctx context.Context, event events.Event) {
	if s.queue == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.queue.Publish(ctx, event)
}

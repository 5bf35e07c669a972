package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// InvalidTransitionError reports a requested event with no matching
// transition from the ticket's current state. The ticket is unchanged.
type InvalidTransitionError struct {
	TicketID  string
	StateID   string
	EventName string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition for event %q from state %s on ticket %s", e.EventName, e.StateID, e.TicketID)
}

// TransitionService validates and applies single state transitions.
type TransitionService struct {
	tickets   repository.TicketRepository
	workflows repository.WorkflowRepository
	histories repository.TransitionHistoryRepository
	writer    repository.TransitionWriter
	queue     events.Queue
	logger    *zap.Logger
	now       func() time.Time
}

// TransitionDependencies bundles collaborators for the executor.
type TransitionDependencies struct {
	TicketRepo   repository.TicketRepository
	WorkflowRepo repository.WorkflowRepository
	HistoryRepo  repository.TransitionHistoryRepository
	Writer       repository.TransitionWriter
	Queue        events.Queue
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewTransitionService constructs the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TransitionService{
		tickets:   deps.TicketRepo,
		workflows: deps.WorkflowRepo,
		histories: deps.HistoryRepo,
		writer:    deps.Writer,
		queue:     deps.Queue,
		logger:    deps.Logger,
		now:       now,
	}
}

// Execute moves the ticket along the edge matching (current state,
// eventName). On success the ticket's state is updated and one history
// row is appended with the computed SLA due date, in one transaction,
// and a transition event is published for the escalation subsystem's
// bookkeeping.
func (s *TransitionService) Execute(ctx context.Context, ticketID, eventName, actorID string) (*domain.TransitionHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	def, err := s.workflows.GetDefinition(ctx, ticket.WorkflowID)
	if err != nil {
		return nil, err
	}

	transition, ok := def.FindTransition(ticket.StateID, eventName)
	if !ok {
		return nil, &InvalidTransitionError{
			TicketID:  ticket.ID,
			StateID:   ticket.StateID,
			EventName: eventName,
		}
	}

	target, ok := def.StateByID(transition.TargetStateID)
	if !ok {
		return nil, fmt.Errorf("workflow %s: transition %s targets unknown state %s",
			def.Workflow.ID, transition.EventName, transition.TargetStateID)
	}

	now := s.now()
	var slaDue *time.Time
	if window, hasSLA := transition.SLADuration(); hasSLA {
		due := now.Add(window)
		slaDue = &due
	}

	status := domain.TransitionStatusInProgress
	if target.IsFinal {
		status = domain.TransitionStatusCompleted
	}

	fromState := ticket.StateID
	history := &domain.TransitionHistory{
		TicketID:       ticket.ID,
		WorkflowID:     ticket.WorkflowID,
		FromStateID:    &fromState,
		ToStateID:      target.ID,
		EventName:      eventName,
		TransitionDate: now,
		SLADueDate:     slaDue,
		Status:         status,
	}

	if err := s.writer.ApplyTransition(ctx, ticket.ID, target.ID, history); err != nil {
		return nil, err
	}

	s.logger.Info("ticket transitioned",
		zap.String("ticket_id", ticket.ID),
		zap.String("event", eventName),
		zap.String("from_state", fromState),
		zap.String("to_state", target.ID),
		zap.Timep("sla_due_date", slaDue))

	s.publish(ctx, events.Event{
		Type:     events.EventTicketTransitioned,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketTransitionedPayload{
			WorkflowID:  ticket.WorkflowID,
			HistoryID:   history.ID,
			FromStateID: history.FromStateID,
			ToStateID:   history.ToStateID,
			EventName:   eventName,
			SLADueDate:  slaDue,
			TargetFinal: target.IsFinal,
		},
	})

	return history, nil
}

// Definition exposes a workflow's state graph.
func (s *TransitionService) Definition(ctx context.Context, workflowID string) (*domain.WorkflowDefinition, error) {
	return s.workflows.GetDefinition(ctx, workflowID)
}

// History returns a ticket's transition log, oldest first.
func (s *TransitionService) History(ctx context.Context, ticketID string) ([]domain.TransitionHistory, error) {
	return s.histories.ListByTicket(ctx, ticketID)
}

func (s *TransitionService) publish(ctx context.Context, event events.Event) {
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

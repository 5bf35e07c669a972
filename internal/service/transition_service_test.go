package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateState(_ context.Context, ticketID, stateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.StateID = stateID
	return nil
}

type fakeWorkflowRepo struct {
	defs map[string]*domain.WorkflowDefinition
}

func (r *fakeWorkflowRepo) GetDefinition(_ context.Context, workflowID string) (*domain.WorkflowDefinition, error) {
	def, ok := r.defs[workflowID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return def, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.TransitionHistory
	order   []string
}

func newFakeHistoryRepo(entries ...*domain.TransitionHistory) *fakeHistoryRepo {
	repo := &fakeHistoryRepo{entries: make(map[string]*domain.TransitionHistory)}
	for _, h := range entries {
		repo.entries[h.ID] = h
		repo.order = append(repo.order, h.ID)
	}
	return repo
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TransitionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	copied := *history
	r.entries[history.ID] = &copied
	r.order = append(r.order, history.ID)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TransitionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TransitionHistory
	for _, id := range r.order {
		if r.entries[id].TicketID == ticketID {
			result = append(result, *r.entries[id])
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.TransitionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TransitionHistory
	for _, id := range r.order {
		if len(result) >= limit {
			break
		}
		if r.entries[id].Overdue(now) {
			result = append(result, *r.entries[id])
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) UpdateStatus(_ context.Context, historyID string, status domain.TransitionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[historyID]
	if !ok {
		return pgx.ErrNoRows
	}
	entry.Status = status
	return nil
}

func (r *fakeHistoryRepo) CompleteAllExcept(_ context.Context, ticketID, keepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.TicketID != ticketID || entry.ID == keepID {
			continue
		}
		if entry.Status == domain.TransitionStatusInProgress || entry.Status == domain.TransitionStatusEscalated {
			entry.Status = domain.TransitionStatusCompleted
		}
	}
	return nil
}

// fakeTransitionWriter mirrors the single-transaction semantics of the
// real writer: on failure neither the ticket nor the history changes.
type fakeTransitionWriter struct {
	tickets   *fakeTicketRepo
	histories *fakeHistoryRepo
	err       error
}

func (w *fakeTransitionWriter) ApplyTransition(ctx context.Context, ticketID, stateID string, history *domain.TransitionHistory) error {
	if w.err != nil {
		return w.err
	}
	if err := w.tickets.UpdateState(ctx, ticketID, stateID); err != nil {
		return err
	}
	return w.histories.Create(ctx, history)
}

type captureQueue struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.Handler
}

func newCaptureQueue() *captureQueue {
	return &captureQueue{handlers: make(map[events.EventType][]events.Handler)}
}

func (q *captureQueue) Publish(ctx context.Context, event events.Event) error {
	q.mu.Lock()
	q.published = append(q.published, event)
	handlers := append([]events.Handler{}, q.handlers[event.Type]...)
	q.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (q *captureQueue) Subscribe(eventType events.EventType, handler events.Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[eventType] = append(q.handlers[eventType], handler)
}

func (q *captureQueue) Run(context.Context) {}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// testDefinition builds a three-state workflow: open -> working -> done,
// where "start" carries a 60 minute SLA and "resolve" has none.
func testDefinition() *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{
		Workflow: domain.Workflow{
			ID:                  "wf-1",
			Name:                "Support flow",
			Visibility:          domain.VisibilityTeam,
			Level1EscalationMin: 30,
			Level2EscalationMin: 60,
			Level3EscalationMin: 120,
		},
		States: []domain.WorkflowState{
			{ID: "st-open", WorkflowID: "wf-1", Name: "Open", IsInitial: true},
			{ID: "st-working", WorkflowID: "wf-1", Name: "Working"},
			{ID: "st-done", WorkflowID: "wf-1", Name: "Done", IsFinal: true},
		},
		Transitions: []domain.WorkflowTransition{
			{ID: "tr-start", WorkflowID: "wf-1", SourceStateID: "st-open", TargetStateID: "st-working", EventName: "start", SLADurationMin: intPtr(60), EscalateOnViolation: true},
			{ID: "tr-resolve", WorkflowID: "wf-1", SourceStateID: "st-working", TargetStateID: "st-done", EventName: "resolve"},
		},
	}
}

func testTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:          "tk-1",
		ExternalKey: "TCK-0001",
		TeamID:      "team-1",
		WorkflowID:  "wf-1",
		StateID:     "st-open",
		RequesterID: "user-req",
		Title:       "Printer on fire",
		Priority:    domain.TicketPriorityHigh,
	}
}

func newTransitionFixture(ticket *domain.Ticket) (*TransitionService, *fakeTicketRepo, *fakeHistoryRepo, *captureQueue) {
	tickets := newFakeTicketRepo(ticket)
	histories := newFakeHistoryRepo()
	queue := newCaptureQueue()
	svc := NewTransitionService(TransitionDependencies{
		TicketRepo:   tickets,
		WorkflowRepo: &fakeWorkflowRepo{defs: map[string]*domain.WorkflowDefinition{"wf-1": testDefinition()}},
		HistoryRepo:  histories,
		Writer:       &fakeTransitionWriter{tickets: tickets, histories: histories},
		Queue:        queue,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return testNow },
	})
	return svc, tickets, histories, queue
}

func TestExecuteValidTransition(t *testing.T) {
	ticket := testTicket()
	svc, tickets, histories, queue := newTransitionFixture(ticket)

	history, err := svc.Execute(context.Background(), "tk-1", "start", "actor-1")
	require.NoError(t, err)

	updated, err := tickets.GetByID(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Equal(t, "st-working", updated.StateID)

	entries, err := histories.ListByTicket(context.Background(), "tk-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ID, entries[0].ID)
	assert.Equal(t, "st-open", *entries[0].FromStateID)
	assert.Equal(t, "st-working", entries[0].ToStateID)
	assert.Equal(t, domain.TransitionStatusInProgress, entries[0].Status)
	require.NotNil(t, entries[0].SLADueDate)
	assert.Equal(t, testNow.Add(60*time.Minute), *entries[0].SLADueDate)

	require.Len(t, queue.published, 1)
	assert.Equal(t, events.EventTicketTransitioned, queue.published[0].Type)
	payload, ok := queue.published[0].Payload.(events.TicketTransitionedPayload)
	require.True(t, ok)
	assert.Equal(t, history.ID, payload.HistoryID)
}

func TestExecuteTransitionWithoutSLA(t *testing.T) {
	ticket := testTicket()
	ticket.StateID = "st-working"
	svc, _, histories, _ := newTransitionFixture(ticket)

	history, err := svc.Execute(context.Background(), "tk-1", "resolve", "actor-1")
	require.NoError(t, err)
	assert.Nil(t, history.SLADueDate)
	assert.Equal(t, domain.TransitionStatusCompleted, history.Status)

	entries, err := histories.ListByTicket(context.Background(), "tk-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.TransitionStatusCompleted, entries[0].Status)
}

func TestExecuteUnknownEvent(t *testing.T) {
	ticket := testTicket()
	svc, tickets, histories, queue := newTransitionFixture(ticket)

	_, err := svc.Execute(context.Background(), "tk-1", "frobnicate", "actor-1")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "tk-1", invalid.TicketID)
	assert.Equal(t, "st-open", invalid.StateID)
	assert.Equal(t, "frobnicate", invalid.EventName)

	unchanged, err := tickets.GetByID(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Equal(t, "st-open", unchanged.StateID)

	entries, err := histories.ListByTicket(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, queue.published)
}

func TestExecuteFromFinalState(t *testing.T) {
	ticket := testTicket()
	ticket.StateID = "st-done"
	svc, _, histories, _ := newTransitionFixture(ticket)

	_, err := svc.Execute(context.Background(), "tk-1", "start", "actor-1")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	entries, err := histories.ListByTicket(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecuteFailedWriteLeavesTicketUnchanged(t *testing.T) {
	ticket := testTicket()
	tickets := newFakeTicketRepo(ticket)
	histories := newFakeHistoryRepo()
	queue := newCaptureQueue()
	svc := NewTransitionService(TransitionDependencies{
		TicketRepo:   tickets,
		WorkflowRepo: &fakeWorkflowRepo{defs: map[string]*domain.WorkflowDefinition{"wf-1": testDefinition()}},
		HistoryRepo:  histories,
		Writer:       &fakeTransitionWriter{tickets: tickets, histories: histories, err: errors.New("pg down")},
		Queue:        queue,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return testNow },
	})

	_, err := svc.Execute(context.Background(), "tk-1", "start", "actor-1")
	require.Error(t, err)

	unchanged, err := tickets.GetByID(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Equal(t, "st-open", unchanged.StateID)

	entries, err := histories.ListByTicket(context.Background(), "tk-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, queue.published)
}

func TestExecuteUnknownTicket(t *testing.T) {
	svc, _, _, _ := newTransitionFixture(testTicket())

	_, err := svc.Execute(context.Background(), "tk-missing", "start", "actor-1")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/repository"
)

// Escalator processes one overdue history row.
type Escalator interface {
	Escalate(ctx context.Context, history domain.TransitionHistory) error
}

// SLAMonitor periodically scans for transition history rows whose SLA
// due date has passed and hands them to the escalation engine. A shared
// lock keeps the scan single-flight across service instances, and a
// failure on one ticket never stops the rest of the batch.
type SLAMonitor struct {
	histories repository.TransitionHistoryRepository
	escalator Escalator
	locker    Locker
	cfg       config.SLAConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// SLAMonitorDependencies bundles collaborators for the detector.
type SLAMonitorDependencies struct {
	HistoryRepo repository.TransitionHistoryRepository
	Escalator   Escalator
	Locker      Locker
	Config      config.SLAConfig
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewSLAMonitor constructs the detector.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SLAMonitor{
		histories: deps.HistoryRepo,
		escalator: deps.Escalator,
		locker:    deps.Locker,
		cfg:       deps.Config,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       now,
	}
}

// Run ticks the scan until the context is cancelled.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ScanInterval())
	defer ticker.Stop()

	m.logger.Info("sla monitor started",
		zap.String("job", m.cfg.JobName),
		zap.Duration("interval", m.cfg.ScanInterval()))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped", zap.String("job", m.cfg.JobName))
			return
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				m.logger.Error("sla scan failed", zap.String("job", m.cfg.JobName), zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single scan tick. A held lock means another
// instance owns this tick; that is a no-op, not an error.
func (m *SLAMonitor) RunOnce(ctx context.Context) error {
	release, ok, err := m.locker.Acquire(ctx, m.cfg.LockName, m.cfg.LockMaxHold())
	if err != nil {
		return err
	}
	if !ok {
		m.metrics.RecordScanSkip()
		m.logger.Debug("sla scan skipped, lock held elsewhere", zap.String("lock", m.cfg.LockName))
		return nil
	}
	defer release(ctx)

	overdue, err := m.histories.ListOverdue(ctx, m.now(), m.cfg.BatchLimit)
	if err != nil {
		return err
	}

	// One escalation per ticket per tick, even when several of its rows
	// are overdue.
	seen := make(map[string]struct{}, len(overdue))
	processed := 0
	for _, row := range overdue {
		if _, dup := seen[row.TicketID]; dup {
			continue
		}
		seen[row.TicketID] = struct{}{}

		if err := m.escalator.Escalate(ctx, row); err != nil {
			m.metrics.RecordScanItemError()
			m.logger.Error("escalation failed",
				zap.String("ticket_id", row.TicketID),
				zap.String("history_id", row.ID),
				zap.Error(err))
			continue
		}
		processed++
	}

	m.metrics.RecordScanRun()
	if len(overdue) > 0 {
		m.logger.Info("sla scan completed",
			zap.Int("overdue", len(overdue)),
			zap.Int("processed", processed))
	}
	return nil
}

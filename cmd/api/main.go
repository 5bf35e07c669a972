package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workflow-service/internal/api/http"
	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/cache"
	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/mail"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/persistence"
	"github.com/spec-kit/workflow-service/internal/push"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/service"
	"github.com/spec-kit/workflow-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	queue := events.NewChannelQueue(cfg.SLA.EventBufferSize, logger)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)
	historyRepo := repository.NewTransitionHistoryRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	hub := push.NewHub(logger.Named("push"))

	mailer, err := mail.NewSMTPMailer(cfg.Mail, logger.Named("mail"))
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	var dedup cache.Dedup
	var locker worker.Locker
	if redis.Ping(ctx) == nil {
		dedup = cache.NewRedisDedup(redis.Client)
		locker = worker.NewRedisLocker(redis.Client, cfg.SLA.LockMinRearm())
	} else {
		logger.Warn("redis unavailable; using in-process dedup cache and job lock")
		dedup = cache.NewMemoryDedup()
		locker = worker.NewMemoryLocker(cfg.SLA.LockMinRearm())
	}

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		Dedup:            dedup,
		Pusher:           hub,
		Mailer:           mailer,
		Config:           cfg.Notification,
		JobName:          cfg.SLA.JobName,
		DedupTTL:         cfg.SLA.DedupTTL(),
		Metrics:          metrics,
		Logger:           logger.Named("notify"),
	})

	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:     ticketRepo,
		WorkflowRepo:   workflowRepo,
		HistoryRepo:    historyRepo,
		EscalationRepo: escalationRepo,
		TeamRepo:       teamRepo,
		UserRepo:       userRepo,
		Notifier:       notificationService,
		Queue:          queue,
		Metrics:        metrics,
		Logger:         logger.Named("escalation"),
	})
	escalationService.RegisterHandlers(queue)

	transitionService := service.NewTransitionService(service.TransitionDependencies{
		TicketRepo:   ticketRepo,
		WorkflowRepo: workflowRepo,
		HistoryRepo:  historyRepo,
		Writer:       repository.NewTransitionWriter(pool),
		Queue:        queue,
		Logger:       logger.Named("transition"),
	})

	monitor := worker.NewSLAMonitor(worker.SLAMonitorDependencies{
		HistoryRepo: historyRepo,
		Escalator:   escalationService,
		Locker:      locker,
		Config:      cfg.SLA,
		Metrics:     metrics,
		Logger:      logger.Named("sla-monitor"),
	})

	go queue.Run(ctx)
	go monitor.Run(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:       handlers.NewTicketsHandler(transitionService),
		Workflows:     handlers.NewWorkflowsHandler(transitionService),
		Notifications: handlers.NewNotificationsHandler(notificationService),
		Hub:           hub,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	events.Drain(context.Background(), queue)
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

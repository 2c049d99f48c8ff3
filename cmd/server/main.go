// main wires configuration, storage, outbound clients, the Kafka consumers,
// the leader-gated maintenance jobs and the HTTP API, then runs everything
// under one errgroup until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"syfooversiktsrv/internal/clients/accesscontrol"
	"syfooversiktsrv/internal/clients/identityregistry"
	"syfooversiktsrv/internal/clients/orgnames"
	"syfooversiktsrv/internal/clients/token"
	"syfooversiktsrv/internal/consumers"
	"syfooversiktsrv/internal/identity"
	"syfooversiktsrv/internal/jobs"
	"syfooversiktsrv/internal/kafka"
	"syfooversiktsrv/internal/leader"
	"syfooversiktsrv/internal/personstatus/handler"
	personmetrics "syfooversiktsrv/internal/personstatus/metrics"
	"syfooversiktsrv/internal/personstatus/service"
	"syfooversiktsrv/internal/personstatus/store"
	"syfooversiktsrv/internal/platform/config"
	"syfooversiktsrv/internal/platform/database"
	"syfooversiktsrv/internal/platform/httpserver"
	"syfooversiktsrv/internal/platform/logger"
	platformmetrics "syfooversiktsrv/internal/platform/metrics"
	"syfooversiktsrv/internal/platform/middleware"
	"syfooversiktsrv/internal/platform/redis"
	"syfooversiktsrv/internal/scheduler"
)

const lagReportInterval = time.Minute

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	db, err := database.New(database.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer cache.Close()

	tokens, err := token.New(token.Config{
		Endpoint:     cfg.Clients.TokenEndpoint,
		ClientID:     cfg.Clients.ClientID,
		ClientSecret: cfg.Clients.ClientSecret,
	})
	if err != nil {
		return err
	}

	registry, err := identityregistry.New(log, cfg.Clients.IdentityRegistryURL, tokens)
	if err != nil {
		return err
	}
	orgNames, err := orgnames.New(log, cfg.Clients.EnhetsregisterURL, cache)
	if err != nil {
		return err
	}
	warmer, err := accesscontrol.New(log, cfg.Clients.AccessControlURL, tokens)
	if err != nil {
		return err
	}

	statusStore := store.NewPostgres(db.DB)
	statusService, err := service.New(statusStore,
		service.WithLogger(log),
		service.WithMetrics(personmetrics.New()),
	)
	if err != nil {
		return err
	}

	consumerMetrics := kafka.NewMetrics()
	handlers := []kafka.BatchHandler{
		consumers.NewOrgAssignmentHandler(statusService, log, consumerMetrics),
		consumers.NewFollowUpTaskHandler(statusService, log, consumerMetrics),
		consumers.NewDialogMeetingHandler(statusService, log, consumerMetrics),
		consumers.NewCapacityAssessmentHandler(statusService, log, consumerMetrics),
		consumers.NewCooperationHandler(statusService, log, consumerMetrics),
		consumers.NewLateFollowUpHandler(statusService, log, consumerMetrics),
		consumers.NewActivityRequirementHandler(statusService, log, consumerMetrics),
		consumers.NewFollowUpCaseHandler(statusService, log, consumerMetrics),
	}

	reconciler, err := identity.New(statusStore, statusService, registry, db, log,
		identity.WithMetrics(identity.NewMetrics()),
		identity.WithConsumerMetrics(consumerMetrics),
	)
	if err != nil {
		return err
	}
	handlers = append(handlers, reconciler)

	g, ctx := errgroup.WithContext(ctx)

	topics := make([]string, 0, len(handlers))
	for _, h := range handlers {
		topics = append(topics, h.Topic())
		consumer, err := kafka.NewConsumer(kafka.Config{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			ClientID: cfg.Kafka.ClientID,
		}, h, db, log, consumerMetrics)
		if err != nil {
			return err
		}
		g.Go(func() error { return consumer.Run(ctx) })
	}

	lagReporter, err := kafka.NewLagReporter(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topics, lagReportInterval, log, consumerMetrics)
	if err != nil {
		return err
	}
	g.Go(func() error { return lagReporter.Run(ctx) })

	if err := registerJobs(ctx, g, cfg, db, statusStore, statusService, warmer, orgNames, log); err != nil {
		return err
	}

	validator := middleware.NewValidator(cfg.Server.JWTSigningKey, cfg.Server.AllowedClients)
	api := handler.New(statusService, db, log, validator)
	router := httpserver.NewRouter(log, platformmetrics.New(), db, api)
	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.Info("starting syfooversiktsrv", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func registerJobs(
	ctx context.Context,
	g *errgroup.Group,
	cfg config.Config,
	db *database.DB,
	statusStore *store.PostgresStore,
	statusService *service.Service,
	warmer *accesscontrol.Client,
	orgNames *orgnames.Client,
	log *slog.Logger,
) error {
	elector := leader.New(cfg.Elector.URL, cfg.Elector.PodName, log)
	sched, err := scheduler.New(elector, log, scheduler.NewMetrics())
	if err != nil {
		return err
	}

	jobMetrics := jobs.NewMetrics()
	reaper, err := jobs.NewReaper(statusStore, statusService, db, log, jobMetrics,
		cfg.Jobs.ReaperCaseEndCutoff, cfg.Jobs.ReaperModifiedCutoff)
	if err != nil {
		return err
	}
	preloader, err := jobs.NewPreloader(statusStore, warmer, log, jobMetrics)
	if err != nil {
		return err
	}
	backfill, err := jobs.NewBackfill(statusStore, orgNames, log, jobMetrics)
	if err != nil {
		return err
	}

	sched.Register(reaper, time.Minute, cfg.Jobs.ReaperInterval)
	sched.Register(preloader, scheduler.UntilNextHour(cfg.Jobs.PreloaderHour, time.Now()), 24*time.Hour)
	sched.Register(backfill, 5*time.Minute, cfg.Jobs.BackfillInterval)

	g.Go(func() error { return sched.Run(ctx) })
	return nil
}

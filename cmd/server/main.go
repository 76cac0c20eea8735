package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	accounthandler "rollcall/internal/account/handler"
	accountservice "rollcall/internal/account/service"
	attendancehandler "rollcall/internal/attendance/handler"
	attendanceservice "rollcall/internal/attendance/service"
	checkinmetrics "rollcall/internal/checkin/metrics"
	checkinservice "rollcall/internal/checkin/service"
	eventhandler "rollcall/internal/event/handler"
	eventmetrics "rollcall/internal/event/metrics"
	eventservice "rollcall/internal/event/service"
	jwttoken "rollcall/internal/jwt_token"
	participantservice "rollcall/internal/participant/service"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	platformredis "rollcall/internal/platform/redis"
	"rollcall/internal/registry"
	httptransport "rollcall/internal/transport/http"
	"rollcall/pkg/platform/audit/publisher"
	"rollcall/pkg/platform/circuit"
)

func main() {
	var (
		addr        = pflag.String("addr", "", "listen address (overrides ROLLCALL_ADDR)")
		envFile     = pflag.String("env-file", ".env", "optional dotenv file")
		migrateFlag = pflag.Bool("migrate-only", false, "apply database migrations and exit")
	)
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if *migrateFlag {
		if err := migrateOnly(cfg, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if cfg.UsingDevSigningKey() {
		log.Warn("JWT_SIGNING_KEY not set; using the development key")
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN not set; account administration is disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	pub := publisher.NewPublisher(b.auditStore, publisher.WithLogger(log))
	readiness := map[string]httptransport.Check{"storage": b.ping}

	accounts, err := accountservice.New(b.accounts,
		accountservice.WithLogger(log),
		accountservice.WithAuditPublisher(pub),
	)
	if err != nil {
		return err
	}
	events, err := eventservice.New(b.events, b.tx,
		eventservice.WithLogger(log),
		eventservice.WithAuditPublisher(pub),
		eventservice.WithMetrics(eventmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	participants, err := participantservice.New(b.participants, participantservice.WithLogger(log))
	if err != nil {
		return err
	}
	ledger, err := checkinservice.New(b.checkIns,
		checkinservice.WithLogger(log),
		checkinservice.WithMetrics(checkinmetrics.New(reg)),
		checkinservice.WithLocation(cfg.ReportingLocation),
	)
	if err != nil {
		return err
	}

	gateway, closeGateway, err := newGateway(ctx, cfg, log, reg, readiness)
	if err != nil {
		return err
	}
	defer closeGateway()
	attendance, err := attendanceservice.New(events, gateway, participants, ledger, b.tx,
		attendanceservice.WithLogger(log),
		attendanceservice.WithAuditPublisher(pub),
	)
	if err != nil {
		return err
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:     log,
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		AdminToken: cfg.AdminToken,
		Validator:  jwttoken.NewJWTServiceAdapter(tokens),
		Accounts:   accounts,
		Readiness:  readiness,
	}, httptransport.Handlers{
		Admin: []httptransport.Registrar{accounthandler.New(accounts, tokens, log)},
		Authenticated: []httptransport.Registrar{
			eventhandler.New(events, log),
			attendancehandler.New(attendance, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr, "reporting_timezone", cfg.ReportingLocation.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if b.relay != nil {
		g.Go(func() error {
			log.Info("audit outbox relay started", "topic", cfg.Kafka.AuditTopic)
			return b.relay.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newGateway picks the registry provider and limiter. The HTTP citizen
// registry is used when REGISTRY_URL is set, otherwise an empty static
// provider that finds nobody. Lookups are rate limited in Redis when
// REDIS_URL is set; a limit of zero disables rate limiting.
func newGateway(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer, readiness map[string]httptransport.Check) (*registry.Gateway, func(), error) {
	var provider registry.Provider
	if cfg.Registry.URL != "" {
		provider = registry.NewCitizenProvider("citizen-registry", cfg.Registry.URL, cfg.Registry.APIKey, cfg.Registry.Timeout)
	} else {
		log.Warn("REGISTRY_URL not set; identity lookups will find no records")
		provider = registry.NewStaticProvider("static")
	}

	opts := []registry.Option{
		registry.WithLogger(log),
		registry.WithMetrics(registry.NewMetrics(reg)),
		registry.WithTimeout(cfg.Registry.Timeout),
		registry.WithBreaker(circuit.New(provider.ID(), circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))),
	}
	cleanup := func() {}
	if limit := cfg.Registry.LookupsPerMinute; limit > 0 {
		redisClient, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if redisClient != nil {
			opts = append(opts, registry.WithLimiter(registry.NewRedisLimiter(redisClient, limit, time.Minute)))
			readiness["redis"] = redisClient.Health
			cleanup = func() { _ = redisClient.Close() }
		} else {
			opts = append(opts, registry.WithLimiter(registry.NewMemoryLimiter(limit, time.Minute)))
		}
	}

	gateway, err := registry.NewGateway(provider, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	readiness["registry"] = gateway.Health
	return gateway, cleanup, nil
}

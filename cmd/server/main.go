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

	auctionservice "curio/internal/auction/service"
	auctionstore "curio/internal/auction/store"
	jwttoken "curio/internal/jwt_token"
	mintmodels "curio/internal/mint/models"
	mintservice "curio/internal/mint/service"
	mintstore "curio/internal/mint/store"
	"curio/internal/oracle"
	"curio/internal/platform/config"
	"curio/internal/platform/httpserver"
	"curio/internal/platform/logger"
	"curio/internal/platform/metrics"
	"curio/internal/platform/postgres"
	redisplatform "curio/internal/platform/redis"
	"curio/internal/registry/cache"
	registryservice "curio/internal/registry/service"
	registrystore "curio/internal/registry/store"
	saleservice "curio/internal/sale/service"
	salestore "curio/internal/sale/store"
	httptransport "curio/internal/transport/http"
	treasuryservice "curio/internal/treasury/service"
	treasurystore "curio/internal/treasury/store"
	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
	auditkafka "curio/pkg/platform/audit/kafka"
	auditpublisher "curio/pkg/platform/audit/publisher"
	auditmemory "curio/pkg/platform/audit/store/memory"
	auditpostgres "curio/pkg/platform/audit/store/postgres"
	"curio/pkg/platform/locks"
	tx "curio/pkg/platform/tx"
)

// main wires the stores, services, and background loops, then runs the HTTP
// server until interrupted. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	assetLocks := locks.NewKeyed()

	// Store selection: postgres when a DSN is configured, in-memory otherwise.
	var (
		registryStore registryservice.Store
		treasuryStore treasuryservice.Store
		mintStore     mintservice.Store
		listingStore  salestore.Store
		auctionStore  auctionstore.Store
		auditStore    audit.Store
		runner        tx.Runner = tx.NopRunner{}
		healthCheck   httptransport.Pinger
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}

		registryStore = registrystore.NewPostgres(db)
		treasuryStore = treasurystore.NewPostgres(db)
		mintStore = mintstore.NewPostgres(db)
		listingStore = salestore.NewPostgres(db)
		auctionStore = auctionstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		runner = tx.SQLRunner{DB: db}
		healthCheck = pingerFunc(db.PingContext)

		if err := seedMintParams(ctx, mintStore, cfg); err != nil {
			return err
		}
		log.Info("using postgres stores")
	} else {
		registryStore = registrystore.NewInMemory()
		treasuryStore = treasurystore.NewInMemory()
		mintStore = mintstore.NewInMemory(mintmodels.Params{
			MintingCost: cfg.MintingCost,
			MaxSupply:   cfg.MaxSupply,
		})
		listingStore = salestore.NewInMemory()
		auctionStore = auctionstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	// The durable audit write happens in the request path; Kafka is a
	// best-effort live feed on top of it.
	if len(cfg.KafkaBrokers) > 0 {
		kafkaOpts := []auditkafka.Option{}
		if cfg.KafkaTopic != "" {
			kafkaOpts = append(kafkaOpts, auditkafka.WithTopic(cfg.KafkaTopic))
		}
		feed, err := auditkafka.NewPublisher(ctx, cfg.KafkaBrokers, kafkaOpts...)
		if err != nil {
			return err
		}
		defer feed.Close()
		auditStore = &fanoutAuditStore{primary: auditStore, feed: feed, logger: log}
		log.Info("audit feed enabled", "brokers", cfg.KafkaBrokers)
	}
	auditor := auditpublisher.NewPublisher(auditStore, auditpublisher.WithLogger(log))
	defer auditor.Close()

	registryOpts := []registryservice.Option{
		registryservice.WithDelister(listingStore),
		registryservice.WithAuditPublisher(auditor),
		registryservice.WithMetrics(m),
		registryservice.WithLogger(log),
	}

	if cfg.Redis.URL != "" {
		redisClient, err := redisplatform.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		registryOpts = append(registryOpts,
			registryservice.WithViewCache(cache.New(redisClient.Client, cfg.Redis.ViewTTL)))
		log.Info("asset view cache enabled")
	}

	registry, err := registryservice.New(registryStore, assetLocks, registryOpts...)
	if err != nil {
		return err
	}
	treasury, err := treasuryservice.New(treasuryStore, treasuryservice.WithLogger(log))
	if err != nil {
		return err
	}
	minter, err := mintservice.New(mintStore, registry, treasury, assetLocks,
		mintservice.WithRunner(runner),
		mintservice.WithAuditPublisher(auditor),
		mintservice.WithMetrics(m),
		mintservice.WithLogger(log),
	)
	if err != nil {
		return err
	}
	market, err := saleservice.New(listingStore, registry, treasury,
		saleservice.WithRunner(runner),
		saleservice.WithAuditPublisher(auditor),
		saleservice.WithMetrics(m),
		saleservice.WithLogger(log),
	)
	if err != nil {
		return err
	}
	auctioneer, err := auctionservice.New(auctionStore, registry, treasury,
		auctionservice.WithRunner(runner),
		auctionservice.WithAuditPublisher(auditor),
		auctionservice.WithMetrics(m),
		auctionservice.WithLogger(log),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "curio", "curio")
	handler := httptransport.NewHandler(minter, registry, market, auctioneer, treasury, m, log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Validator:    jwtService,
		OperatorHash: cfg.OperatorTokenHash,
		OracleToken:  cfg.OracleToken,
		Metrics:      m,
		Logger:       log,
		HealthCheck:  healthCheck,
	})

	srv := httpserver.New(cfg.Addr, router)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting registry server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.LocalOracle {
		fulfiller := oracle.NewFulfiller(minter, cfg.LocalOracleInterval, log)
		group.Go(func() error {
			err := fulfiller.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// seedMintParams writes the boot-time minting parameters when the singleton
// row does not exist yet. Operator updates take precedence on later boots.
func seedMintParams(ctx context.Context, store mintservice.Store, cfg config.Config) error {
	if _, err := store.Params(ctx); err == nil {
		return nil
	}
	return store.SetParams(ctx, mintmodels.Params{
		MintingCost: cfg.MintingCost,
		MaxSupply:   cfg.MaxSupply,
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// fanoutAuditStore writes the durable record first, then mirrors the event
// onto the Kafka feed. A feed failure never fails the operation.
type fanoutAuditStore struct {
	primary audit.Store
	feed    *auditkafka.Publisher
	logger  *slog.Logger
}

func (s *fanoutAuditStore) Append(ctx context.Context, event audit.Event) error {
	if err := s.primary.Append(ctx, event); err != nil {
		return err
	}
	if err := s.feed.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit feed publish failed",
			"action", event.Action,
			"error", err,
		)
	}
	return nil
}

func (s *fanoutAuditStore) ListByAsset(ctx context.Context, assetID id.AssetID) ([]audit.Event, error) {
	return s.primary.ListByAsset(ctx, assetID)
}

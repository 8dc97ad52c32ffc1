package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"bidscreen/internal/config"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/billing"
	"bidscreen/internal/domain/service/display"
	"bidscreen/internal/domain/service/storage"
	"bidscreen/internal/domain/value"
	"bidscreen/internal/infrastructure/localstore"
	"bidscreen/internal/infrastructure/persistence"
	"bidscreen/internal/infrastructure/realtime"
	"bidscreen/internal/infrastructure/stripe"
	"bidscreen/internal/server"
	"bidscreen/internal/worker"
	"bidscreen/pkg/application/connectors"
	"bidscreen/pkg/application/modules"
	"bidscreen/pkg/contextx"
	"bidscreen/pkg/logx"
	"bidscreen/pkg/middlewarex"
)

const (
	appName        = "bidscreen"
	logFieldMaxLen = 2048
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// recordFetcher feeds the realtime channel with reconciled records. Going
// through the adapter keeps the local cache fresh on every re-fetch.
type recordFetcher struct {
	adapter *storage.Adapter
}

func (f recordFetcher) FetchRecord(ctx context.Context, id value.EventID) (*entity.DisplayRecord, error) {
	return f.adapter.LoadEvent(ctx, id)
}

func Run(ctx context.Context, version string) error { //nolint:funlen
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	rd := &connectors.Redis{
		Address:            cfg.Redis.Address,
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	redisClient := rd.Client(ctx)
	defer rd.Close(ctx)

	displayRepo := persistence.NewDisplayRepository(db)
	accountRepo := persistence.NewAccountRepository(db)

	local, err := localstore.New(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("localstore.New: %w", err)
	}

	stripeClient := stripe.NewClient(cfg.Stripe.APIKey).WithBaseURL(cfg.Stripe.BaseURL)
	billingService := billing.NewService(accountRepo, stripeClient)

	bus := realtime.NewRedisBus(redisClient)
	localBus := realtime.NewLocalBus()

	adapter := storage.NewAdapter(
		local,
		displayRepo,
		billingService,
		bus,
		cfg.Storage.AccountID,
		cfg.Storage.PremiumStorage,
	)

	billingService.WithUpgradeHook(func(ctx context.Context) {
		if _, err := adapter.Reinitialize(ctx); err != nil {
			logger(ctx).Error("adapter.Reinitialize", logx.Error(err))
		}
	})

	if _, err := adapter.Initialize(ctx); err != nil {
		return fmt.Errorf("adapter.Initialize: %w", err)
	}

	manager := realtime.NewManager(bus, recordFetcher{adapter: adapter}, localBus)
	defer manager.Close()

	displayService := display.NewService(adapter, local, billingService, localBus, cfg.Storage.AccountID)

	srv := server.NewServer(
		server.NewDisplayServer(displayService, localBus, manager),
		server.NewStorageServer(adapter),
		server.NewBillingServer(billingService, cfg.Stripe.WebhookSecret),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(middlewarex.TraceID)
	router.Use(middlewarex.Logger)
	router.Use(middlewarex.Recovery)
	router.Use(middlewarex.RequestLogging(masker, logFieldMaxLen))
	router.Use(middlewarex.ResponseLogging(masker, logFieldMaxLen))
	srv.RegisterRoutes(router)

	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              cfg.Server.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, httpServer)

	modules.ProbeServer{
		Name:          appName,
		Version:       version,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.Server.MetricListenAddress}.Run(ctx, g)

	modules.AsynqServer{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(
		ctx, g,
		modules.AsynqQueues{"default": 1},
		modules.AsynqHandler{
			Pattern: worker.TypeSubscriptionExpire,
			Handle:  worker.HandleSubscriptionExpire(billingService),
		},
	)

	modules.AsynqScheduler{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(ctx, g, modules.AsynqSchedulerTask{
		Cronspec: cfg.Storage.ExpirySweepSchedule,
		Task:     worker.NewSubscriptionExpireTask(),
	})

	watcher := worker.NewConnectivityWatcher(displayRepo, adapter).
		WithInterval(cfg.Storage.ConnectivityInterval)

	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watcher.Run: %w", err)
		}

		return nil
	})

	return g.Wait() //nolint:wrapcheck
}

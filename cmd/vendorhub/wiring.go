package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vendorhub/internal/app/availability"
	"vendorhub/internal/app/commands"
	bookingapp "vendorhub/internal/app/handlers/booking"
	capturesapp "vendorhub/internal/app/handlers/captures"
	pricingapp "vendorhub/internal/app/handlers/pricing"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/middleware"
	"vendorhub/internal/app/outbox"
	"vendorhub/internal/app/policies"
	"vendorhub/internal/app/queries"
	"vendorhub/internal/app/quoting"
	"vendorhub/internal/app/schedule"
	"vendorhub/internal/app/uow"
	domainbooking "vendorhub/internal/domain/booking"
	domainpricing "vendorhub/internal/domain/pricing"
	"vendorhub/internal/domain/shared/money"
	"vendorhub/internal/infra/broker/kafka"
	redisstore "vendorhub/internal/infra/cache/redis"
	"vendorhub/internal/infra/config"
	mongostore "vendorhub/internal/infra/db/mongo"
	"vendorhub/internal/infra/gateway"
	"vendorhub/internal/infra/gateway/razorpay"
	"vendorhub/internal/infra/gateway/sandbox"
	ginserver "vendorhub/internal/infra/http/gin"
	"vendorhub/internal/infra/inbox"
	"vendorhub/internal/infra/notify"
	"vendorhub/internal/infra/obs"
	outboxworker "vendorhub/internal/infra/outbox"
	"vendorhub/internal/infra/storage/memory"
	"vendorhub/internal/infra/storage/s3"
)

type backgroundJob struct {
	name string
	run  func(context.Context) error
}

type application struct {
	handlers   ginserver.Handlers
	checks     []obs.Check
	background []backgroundJob
	closers    []func(context.Context) error
}

func (a *application) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
}

// storage groups the persistence ports chosen by STORAGE_MODE.
type storage struct {
	factory      uow.UoWFactory
	bookings     domainbooking.Repository
	transactions domainbooking.TransactionRepository
	schedules    domainbooking.ScheduleRepository
	configs      domainpricing.ConfigRepository
	outbox       outbox.Outbox
	idempotency  middleware.IdempotencyStore
	inbox        ginserver.WebhookInbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}
	registry := policies.NewServiceRegistry()

	var store storage
	switch cfg.StorageMode {
	case config.StorageMongo:
		s, err := buildMongo(ctx, cfg, registry, app, logger)
		if err != nil {
			app.close(ctx, logger)
			return nil, err
		}
		store = s
	default:
		store = buildMemory(cfg, registry, app, logger)
		if err := loadServiceFixtures(ctx, cfg.ServicesFixture, registry, logger); err != nil {
			logger.Warn("service fixtures load failed", "error", err, "path", cfg.ServicesFixture)
		}
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("redis: %w", err)
		}
		store.idempotency = redisstore.NewIdempotencyStore(client)
		app.checks = append(app.checks, obs.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		logger.Info("idempotency backed by redis", "addr", cfg.RedisAddr)
	}

	var notifier policies.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("amqp: %w", err)
		}
		notifier = amqpNotifier
		app.closers = append(app.closers, func(context.Context) error { return amqpNotifier.Close() })
	}

	var archive policies.ReportArchiver = s3.NoopArchive{}
	if cfg.S3Endpoint != "" {
		a, err := s3.NewArchive(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			app.close(ctx, logger)
			return nil, fmt.Errorf("s3: %w", err)
		}
		archive = a
	}

	gw := buildGateway(cfg, logger)

	penalty, err := money.New(cfg.VendorPenalty, cfg.Currency)
	if err != nil {
		app.close(ctx, logger)
		return nil, fmt.Errorf("vendor penalty: %w", err)
	}

	quoter := &quoting.Quoter{Services: registry, Configs: store.configs, Currency: cfg.Currency}
	l := &ledger.Ledger{
		UoW:          store.factory,
		Bookings:     store.bookings,
		Transactions: store.transactions,
		Schedules:    store.schedules,
		Quoter:       quoter,
		Services:     registry,
		Dates:        &availability.Updater{Services: registry, Logger: logger},
		Gateway:      gw,
		Notifier:     notifier,
		Outbox:       store.outbox,
		Encoder:      outbox.JSONEventEncoder{},
		Logger:       logger,
		IDGen:        uuid.NewString,
		Options: ledger.Options{
			LeaseTTL:        cfg.OperationLease,
			CaptureLeadTime: cfg.CaptureLeadTime,
			RetryBackoff:    cfg.RetryBackoff,
			VendorPenalty:   penalty,
		},
	}
	runner := &schedule.CaptureRunner{
		Schedules: store.schedules,
		Ledger:    l,
		Outbox:    store.outbox,
		Archive:   archive,
		Interval:  cfg.CaptureInterval,
		BatchSize: cfg.CaptureBatch,
		Logger:    logger,
	}
	app.background = append(app.background, backgroundJob{name: "capture-runner", run: runner.Run})

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	bookingapp.Register(commandBus, queryBus, l)
	pricingapp.Register(commandBus, queryBus, quoter, logger)
	capturesapp.Register(commandBus, runner)

	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Tracing(nil),
		middleware.Logging(logger),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(store.idempotency, middleware.JSONResultCodec{}, cfg.IdempotencyTTL),
		middleware.OutboxFlush(store.outbox, logger),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryTracing(nil),
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	auth := ginserver.AuthMiddleware{Secret: []byte(cfg.JWTSecret), Logger: logger}
	app.handlers = ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
		Webhook:        ginserver.WebhookHandler{Commands: cmds, Verifier: gw, Inbox: store.inbox, Logger: logger},
		Service:        ginserver.ServiceHandler{Commands: cmds, Queries: qs, Logger: logger},
		Admin:          ginserver.AdminHandler{Commands: cmds, Logger: logger},
		AuthMiddleware: auth.Handle,
	}
	return app, nil
}

func buildMemory(cfg config.Config, registry *policies.ServiceRegistry, app *application, logger *slog.Logger) storage {
	bookings := memory.NewBookingRepository()
	txs := memory.NewTransactionRepository()
	schedules := memory.NewScheduleRepository()
	idem := memory.NewIdempotencyStore(nil)
	app.background = append(app.background, backgroundJob{name: "idempotency-janitor", run: func(ctx context.Context) error {
		idem.Janitor(ctx, time.Minute)
		return nil
	}})
	for _, category := range cfg.ServiceCategories {
		registry.Register(category, memory.NewServiceStore(category))
	}
	return storage{
		factory:      memory.Factory{Bookings: bookings, Transactions: txs, Schedules: schedules},
		bookings:     bookings,
		transactions: txs,
		schedules:    schedules,
		configs:      memory.NewPricingConfigRepository(),
		outbox:       memory.NewOutbox(logger),
		idempotency:  idem,
		inbox:        memory.NewInbox(nil, cfg.IdempotencyTTL),
	}
}

func buildMongo(ctx context.Context, cfg config.Config, registry *policies.ServiceRegistry, app *application, logger *slog.Logger) (storage, error) {
	client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo: %w", err)
	}
	app.closers = append(app.closers, client.Close)
	app.checks = append(app.checks, obs.Check{Name: "mongo", Probe: client.Ping})

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.EnsureIndexes(initCtx); err != nil {
		return storage{}, fmt.Errorf("mongo indexes: %w", err)
	}

	db := client.DB
	factory := mongostore.NewFactory(db)
	mongostore.RegisterCategories(db, registry, cfg.ServiceCategories)
	box := outboxworker.NewStore(db)
	webhooks := inbox.NewStore(db, "gateway-webhooks", cfg.IdempotencyTTL)
	if err := webhooks.EnsureIndexes(initCtx); err != nil {
		return storage{}, fmt.Errorf("mongo inbox indexes: %w", err)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("vendorhub-outbox"))
		if err != nil {
			return storage{}, fmt.Errorf("kafka: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		worker := &outboxworker.Worker{
			Store:       box,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			BatchSize:   cfg.CaptureBatch,
			TopicPrefix: cfg.KafkaTopicPrefix,
			ID:          "outbox-" + uuid.NewString(),
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		}
		app.background = append(app.background, backgroundJob{name: "outbox-worker", run: worker.Run})
	} else {
		logger.Warn("KAFKA_BROKERS not set, outbox events stay pending")
	}

	return storage{
		factory:      factory,
		bookings:     factory.BookingRepo,
		transactions: factory.TransactionRepo,
		schedules:    factory.ScheduleRepo,
		configs:      mongostore.NewPricingConfigRepository(db),
		outbox:       box,
		idempotency:  mongostore.NewIdempotencyStore(db),
		inbox:        webhooks,
	}, nil
}

func buildGateway(cfg config.Config, logger *slog.Logger) *gateway.Traced {
	var next policies.Gateway
	switch cfg.GatewayMode {
	case config.GatewayRazorpay:
		next = razorpay.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, cfg.RazorpayBaseURL, cfg.GatewayTimeout, logger)
	default:
		next = sandbox.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	}
	return gateway.NewTraced(next)
}

package app

import (
	"context"
	"os"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hotel/internal/application/usecases/booking"
	"hotel/internal/config"
	"hotel/internal/interfaces/http"
	messaging "hotel/internal/interfaces/message"
	"hotel/internal/interfaces/message/events"
	"hotel/internal/interfaces/message/outbox"
	"hotel/internal/repository"
	"hotel/internal/repository/memory"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger

	engine       *booking.Engine
	eventHandler *events.Handler
	router       *message.Router
	forwarder    *outbox.Forwarder
	srv          *http.Server

	migrate func(ctx context.Context) error
}

// NewApp wires the PostgreSQL store. Events are written to the outbox in the commit
// transaction and forwarded to Redis streams.
func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	db *sqlx.DB,
	redisClient *redis.Client,
) (*App, error) {
	tables := repository.NewTables(cfg.TablePrefix)
	getter := trmsqlx.DefaultCtxGetter

	engine := booking.NewEngine(
		engineConfig(cfg),
		repository.NewTxManager(db),
		repository.NewBookingsRepo(db, getter, tables),
		repository.NewIndexRepo(db, getter, tables),
		repository.NewInventoryRepo(db, getter, tables),
		outbox.NewTxEventBus(db, getter, watermillLogger),
		booking.UUIDGenerator{},
	)

	publisher, err := outbox.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		return nil, err
	}

	fwd, err := outbox.NewForwarder(db, publisher, watermillLogger, outbox.ForwarderConfig{
		PollInterval: cfg.ForwarderPollInterval,
	})
	if err != nil {
		return nil, err
	}

	eventHandler := events.NewHandler()
	router, err := messaging.NewRouter(
		watermillLogger,
		publisher,
		outbox.NewRedisSubscriberConstructor(watermillLogger, redisClient),
		eventHandler,
		messaging.RouterConfig{
			EventsRepo: repository.NewEventsRepo(db, tables),
			MaxRetries: cfg.MessageMaxRetries,
		},
	)
	if err != nil {
		return nil, err
	}

	srv := http.NewServer(
		commonHTTP.NewEcho(),
		engine,
		router.IsRunning,
		db.PingContext,
		serverConfig(cfg),
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          newLogger(),
		engine:          engine,
		eventHandler:    eventHandler,
		router:          router,
		forwarder:       fwd,
		srv:             srv,
		migrate: func(ctx context.Context) error {
			return repository.InitializeDBSchema(ctx, db, tables)
		},
	}, nil
}

// NewMemoryApp keeps everything in process. Events go to a gochannel pubsub after the
// commit unit releases its lock.
func NewMemoryApp(cfg config.Config, watermillLogger watermill.LoggerAdapter) (*App, error) {
	db := memory.New()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	bus, err := events.NewEventBus(pubSub, watermillLogger)
	if err != nil {
		return nil, err
	}

	engine := booking.NewEngine(
		engineConfig(cfg),
		db,
		memory.NewBookingsRepo(db),
		memory.NewIndexRepo(db),
		memory.NewInventoryRepo(db),
		events.NewDeferredEventBus(bus, db),
		booking.UUIDGenerator{},
	)

	eventHandler := events.NewHandler()
	router, err := messaging.NewRouter(
		watermillLogger,
		pubSub,
		func(string) (message.Subscriber, error) {
			return pubSub, nil
		},
		eventHandler,
		messaging.RouterConfig{MaxRetries: cfg.MessageMaxRetries},
	)
	if err != nil {
		return nil, err
	}

	srv := http.NewServer(
		commonHTTP.NewEcho(),
		engine,
		router.IsRunning,
		db.Ping,
		serverConfig(cfg),
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          newLogger(),
		engine:          engine,
		eventHandler:    eventHandler,
		router:          router,
		srv:             srv,
	}, nil
}

func (a *App) Engine() *booking.Engine {
	return a.engine
}

func (a *App) Run(ctx context.Context) error {
	if a.migrate != nil {
		err := a.migrate(ctx)
		if err != nil {
			return err
		}
		a.logger.Info().Msg("database schema initialized")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Msg("starting router")

		return a.router.Run(ctx)
	})

	if a.forwarder != nil {
		g.Go(func() error {
			a.logger.Info().Msg("starting outbox forwarder")

			return a.forwarder.Run(ctx)
		})
	}

	g.Go(func() error {
		select {
		case <-a.router.Running():
		case <-ctx.Done():
			return nil
		}
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	// Will block until all goroutines finish
	err := g.Wait()
	if err != nil {
		a.logger.Err(err).Msg("app stopped with error")
		return err
	}

	a.logger.Info().Msg("app stopped")
	return nil
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "hotel").Logger()
}

func engineConfig(cfg config.Config) booking.Config {
	return booking.Config{
		Catalog:             cfg.Catalog(),
		MaxTransactionItems: cfg.MaxTransactionItems,
		RetryAttempts:       cfg.RetryAttempts,
	}
}

func serverConfig(cfg config.Config) http.ServerConfig {
	return http.ServerConfig{
		Addr:           cfg.HTTPAddr,
		WriteRateLimit: cfg.WriteRateLimit,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

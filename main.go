package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"hotel/internal/app"
	"hotel/internal/config"
	"hotel/internal/interfaces/message/outbox"
	"hotel/internal/interfaces/message/poison"
	"hotel/internal/observability"
	"hotel/internal/repository"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("Could not load .env")
	}

	cliApp := &cli.App{
		Name:  "hotel",
		Usage: "Hotel room reservations",
		Flags: config.Flags(),
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			log.Init(level)

			return nil
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, the message router and the outbox forwarder",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the PostgreSQL tables",
				Action: migrate,
			},
			{
				Name:      "inventory",
				Usage:     "print availability per room type and night",
				ArgsUsage: "<from YYYY-MM-DD> <to YYYY-MM-DD>",
				Action:    printInventory,
			},
			{
				Name:  "poison",
				Usage: "manage the poison queue",
				Subcommands: []*cli.Command{
					{
						Name:  "preview",
						Usage: "list poisoned messages",
						Action: func(c *cli.Context) error {
							queue, closeDeps, err := newPoisonQueue(c)
							if err != nil {
								return err
							}
							defer closeDeps()

							messages, err := queue.Preview(c.Context)
							if err != nil {
								return err
							}

							for _, m := range messages {
								fmt.Printf("%v\t%v\t%v\n", m.ID, m.Handler, m.Reason)
							}

							return nil
						},
					},
					{
						Name:      "remove",
						ArgsUsage: "<message_id>",
						Usage:     "remove a poisoned message",
						Action: func(c *cli.Context) error {
							queue, closeDeps, err := newPoisonQueue(c)
							if err != nil {
								return err
							}
							defer closeDeps()

							return queue.Remove(c.Context, c.Args().First())
						},
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp := observability.ConfigureTraceProvider("hotel")
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	a, closeDeps, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	logrus.WithField("store", cfg.Store).WithField("catalog", cfg.Catalog().String()).Info("Starting hotel")

	return a.Run(ctx)
}

func migrate(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("nothing to migrate for the %s store", cfg.Store)
	}

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()

	err = repository.InitializeDBSchema(c.Context, db, repository.NewTables(cfg.TablePrefix))
	if err != nil {
		return err
	}

	logrus.WithField("table_prefix", cfg.TablePrefix).Info("Schema is up to date")
	return nil
}

func printInventory(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: hotel inventory <from> <to>", 2)
	}

	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	a, closeDeps, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	records, err := a.Engine().Availability(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NIGHT\tROOM TYPE\tBOOKED\tCAPACITY\tAVAILABLE")
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", record.Night, record.RoomType, record.Booked, record.Capacity, record.Available())
	}

	return w.Flush()
}

func newPoisonQueue(c *cli.Context) (*poison.Queue, func(), error) {
	redisAddr := c.String("redis-addr")
	if redisAddr == "" {
		return nil, nil, fmt.Errorf("REDIS_ADDR is required")
	}

	watermillLogger := observability.NewWatermillLogger(logrus.NewEntry(logrus.StandardLogger()))
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	closeDeps := func() {
		_ = redisClient.Close()
	}

	subscriber, err := outbox.NewRedisSubscriberConstructor(watermillLogger, redisClient)("poison-queue-cli")
	if err != nil {
		closeDeps()
		return nil, nil, err
	}

	publisher, err := outbox.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		closeDeps()
		return nil, nil, err
	}

	return poison.NewQueue(subscriber, publisher, watermillLogger), closeDeps, nil
}

func newApp(cfg config.Config) (*app.App, func(), error) {
	watermillLogger := observability.NewWatermillLogger(logrus.NewEntry(logrus.StandardLogger()))

	if cfg.Store == config.StoreMemory {
		a, err := app.NewMemoryApp(cfg, watermillLogger)
		return a, func() {}, err
	}

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	closeDeps := func() {
		_ = redisClient.Close()
		_ = db.Close()
	}

	a, err := app.NewApp(cfg, watermillLogger, db, redisClient)
	if err != nil {
		closeDeps()
		return nil, nil, err
	}

	return a, closeDeps, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"hotel/internal/domain/bookings"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins []string
	WriteRateLimit float64

	Store       string
	PostgresURL string
	RedisAddr   string
	TablePrefix string

	MaxTransactionItems int
	MaxRoomsPerBooking  int
	RetryAttempts       int
	Rooms               map[bookings.RoomType]int

	ForwarderPollInterval time.Duration
	MessageMaxRetries     int

	LogLevel logrus.Level
}

// LoadDotEnv fills the environment from .env files. Missing files are ignored and
// variables that are already set win.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "http-addr", Value: ":8080", EnvVars: []string{"HTTP_ADDR"}},
		&cli.StringSliceFlag{Name: "allowed-origins", EnvVars: []string{"ALLOWED_ORIGINS"}},
		&cli.Float64Flag{Name: "rate-limit", Value: 20, Usage: "write requests per second per client, 0 disables", EnvVars: []string{"RATE_LIMIT"}},

		&cli.StringFlag{Name: "store", Value: StorePostgres, Usage: "postgres or memory", EnvVars: []string{"STORE"}},
		&cli.StringFlag{Name: "postgres-url", EnvVars: []string{"POSTGRES_URL"}},
		&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"REDIS_ADDR"}},
		&cli.StringFlag{Name: "table-prefix", EnvVars: []string{"TABLE_PREFIX"}},

		&cli.IntFlag{Name: "max-transaction-items", Value: 25, EnvVars: []string{"MAX_TRANSACTION_ITEMS"}},
		&cli.IntFlag{Name: "max-rooms-per-booking", Value: bookings.DefaultMaxRoomsPerBooking, EnvVars: []string{"MAX_ROOMS_PER_BOOKING"}},
		&cli.IntFlag{Name: "retry-attempts", Value: 3, Usage: "commit attempts on serialization failures", EnvVars: []string{"RETRY_ATTEMPTS"}},
		&cli.IntFlag{Name: "rooms-single", Value: 8, EnvVars: []string{"ROOMS_SINGLE"}},
		&cli.IntFlag{Name: "rooms-double", Value: 8, EnvVars: []string{"ROOMS_DOUBLE"}},
		&cli.IntFlag{Name: "rooms-suite", Value: 4, EnvVars: []string{"ROOMS_SUITE"}},

		&cli.DurationFlag{Name: "forwarder-poll-interval", Value: 100 * time.Millisecond, EnvVars: []string{"FORWARDER_POLL_INTERVAL"}},
		&cli.IntFlag{Name: "message-max-retries", Value: 10, EnvVars: []string{"MESSAGE_MAX_RETRIES"}},

		&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
	}
}

func FromContext(c *cli.Context) (Config, error) {
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := Config{
		HTTPAddr:       c.String("http-addr"),
		AllowedOrigins: c.StringSlice("allowed-origins"),
		WriteRateLimit: c.Float64("rate-limit"),

		Store:       c.String("store"),
		PostgresURL: c.String("postgres-url"),
		RedisAddr:   c.String("redis-addr"),
		TablePrefix: c.String("table-prefix"),

		MaxTransactionItems: c.Int("max-transaction-items"),
		MaxRoomsPerBooking:  c.Int("max-rooms-per-booking"),
		RetryAttempts:       c.Int("retry-attempts"),
		Rooms: map[bookings.RoomType]int{
			bookings.Single: c.Int("rooms-single"),
			bookings.Double: c.Int("rooms-double"),
			bookings.Suite:  c.Int("rooms-suite"),
		},

		ForwarderPollInterval: c.Duration("forwarder-poll-interval"),
		MessageMaxRetries:     c.Int("message-max-retries"),

		LogLevel: level,
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required for the postgres store"))
		}
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q, use %s or %s", c.Store, StorePostgres, StoreMemory))
	}

	if c.MaxTransactionItems < 3 {
		errs = append(errs, fmt.Errorf("max transaction items must be at least 3, got %d", c.MaxTransactionItems))
	}
	if c.MaxRoomsPerBooking < 1 {
		errs = append(errs, fmt.Errorf("max rooms per booking must be positive, got %d", c.MaxRoomsPerBooking))
	}
	for _, t := range bookings.RoomTypes {
		if c.Rooms[t] < 0 {
			errs = append(errs, fmt.Errorf("%s inventory cannot be negative", t))
		}
	}
	if c.WriteRateLimit < 0 {
		errs = append(errs, errors.New("rate limit cannot be negative"))
	}

	return errors.Join(errs...)
}

func (c Config) Catalog() bookings.Catalog {
	return bookings.NewCatalog(c.Rooms, c.MaxRoomsPerBooking)
}

package repository_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"hotel/internal/repository"
)

var (
	db        *sqlx.DB
	dbErr     error
	getDbOnce sync.Once
	container testcontainers.Container
)

func TestMain(m *testing.M) {
	code := m.Run()

	if container != nil {
		_ = container.Terminate(context.Background())
	}
	os.Exit(code)
}

func getDb(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("POSTGRES_URL")
	if url == "" && os.Getenv("TEST_CONTAINERS") != "true" {
		t.Skip("POSTGRES_URL is not set and TEST_CONTAINERS is not enabled")
	}

	getDbOnce.Do(func() {
		if url == "" {
			url, dbErr = startPostgresContainer()
			if dbErr != nil {
				return
			}
		}

		db, dbErr = sqlx.Connect("postgres", url)
	})
	require.NoError(t, dbErr)

	return db
}

func startPostgresContainer() (string, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "hotel",
			"POSTGRES_PASSWORD": "hotel",
			"POSTGRES_DB":       "hotel",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}

	var err error
	container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("postgres://hotel:hotel@%s:%s/hotel?sslmode=disable", host, port.Port()), nil
}

// setupTables creates a fresh set of tables with a unique prefix for one test.
func setupTables(t *testing.T) (*sqlx.DB, repository.Tables) {
	t.Helper()

	db := getDb(t)
	prefix := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"
	tables := repository.NewTables(prefix)

	require.NoError(t, repository.InitializeDBSchema(context.Background(), db, tables))

	t.Cleanup(func() {
		for _, table := range []string{tables.Bookings, tables.Index, tables.Inventory, tables.Events} {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			require.NoError(t, err)
		}
	})

	return db, tables
}

package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/elmerescandon/financy-v2-sub000/internal/config"
	"github.com/elmerescandon/financy-v2-sub000/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "financy"
	dbUser     = "test_financy"
	dbPassword = "test_financy"
)

// runPostgres starts the container; testcontainers panics instead of failing when no
// Docker host can be found.
var runPostgres = func(ctx context.Context, initScript string) (*postgres.PostgresContainer, error) {
	return postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(initScript),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
}

func preparePostgresContainer(ctx context.Context) (pgContainer *postgres.PostgresContainer, err error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			pgContainer, err = nil, fmt.Errorf("container provider unavailable: %v", r)
		}
	}()

	pgContainer, err = runPostgres(ctx, filepath.Join(projectRoot, "dev", "init.sql"))
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB starts a Postgres container, applies all migrations and snapshots the result.
// When no container runtime is available it returns a nil container, and tests using
// SetupDB are skipped.
func TestWithDB() (*postgres.PostgresContainer, func(ctx context.Context) (*pgxpool.Pool, error)) {
	ctx := context.Background()

	container, err := preparePostgresContainer(ctx)
	if err != nil {
		log.Warnf("Postgres container not available, repository tests will be skipped: %v", err)
		return nil, nil
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: "financy",
	}

	if err := database.Migrate(cfg); err != nil {
		log.Errorf("Failed to apply migrations: %v", err)
		TerminateContainer(container)
		os.Exit(1)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName("postgres-test-snapshot")); err != nil {
		log.Errorf("Failed to snapshot postgres container: %v", err)
		TerminateContainer(container)
		os.Exit(1)
	}

	return container, func(ctx context.Context) (*pgxpool.Pool, error) {
		return database.Open(ctx, cfg)
	}
}

// SetupDB opens a pool against the test container and restores the snapshot once the test ends.
func SetupDB(t *testing.T, container *postgres.PostgresContainer, openDb func(ctx context.Context) (*pgxpool.Pool, error)) *pgxpool.Pool {
	t.Helper()
	if container == nil {
		t.Skip("postgres container not available")
	}
	ctx := context.Background()
	db, err := openDb(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, container.Restore(ctx))
	})
	return db
}

func TerminateContainer(container *postgres.PostgresContainer) {
	if container == nil {
		return
	}
	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
}

// findProjectRoot walks up from the working directory until it finds go.mod or .git.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

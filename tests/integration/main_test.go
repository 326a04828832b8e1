//go:build integration

// Package integration verifies the run history stores against real
// PostgreSQL and MongoDB instances using testcontainers-go.
package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"
)

const testDatabase = "contractcheck_test"

var (
	testCtx context.Context

	pgURL  string
	pgPool *pgxpool.Pool

	mongoURL      string
	mongoDatabase *mongo.Database

	// teardown runs in reverse registration order
	teardown   []func(context.Context) error
	teardownMu sync.Mutex
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	testCtx = ctx

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return startPostgreSQL(gctx) })
	g.Go(func() error { return startMongoDB(gctx) })

	code := 1
	if err := g.Wait(); err != nil {
		log.Printf("integration setup: %v", err)
	} else {
		code = m.Run()
	}

	stopAll()
	cancel()
	os.Exit(code)
}

func startPostgreSQL(ctx context.Context) error {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("postgres container: %w", err)
	}
	onTeardown(func(ctx context.Context) error { return container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("postgres connection string: %w", err)
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	onTeardown(func(context.Context) error { pool.Close(); return nil })
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}

	pgURL, pgPool = url, pool
	return nil
}

func startMongoDB(ctx context.Context) error {
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return fmt.Errorf("mongodb container: %w", err)
	}
	onTeardown(func(ctx context.Context) error { return container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("mongodb connection string: %w", err)
	}
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return fmt.Errorf("mongodb client: %w", err)
	}
	onTeardown(client.Disconnect)
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
	}

	mongoURL, mongoDatabase = url, client.Database(testDatabase)
	return nil
}

func onTeardown(fn func(context.Context) error) {
	teardownMu.Lock()
	defer teardownMu.Unlock()
	teardown = append(teardown, fn)
}

func stopAll() {
	for i := len(teardown) - 1; i >= 0; i-- {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := teardown[i](ctx); err != nil {
			log.Printf("integration teardown: %v", err)
		}
		cancel()
	}
}

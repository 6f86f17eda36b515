package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
	"github.com/jpo-explorer/backend/pkg/config"
	"github.com/jpo-explorer/backend/pkg/retry"
)

// Client wraps the record store connection. It speaks PostgreSQL through
// lib/pq or an embedded SQLite file through modernc.org/sqlite.
type Client struct {
	db      *sql.DB
	dialect string
}

// NewClient opens the configured store and pings it with exponential backoff.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	driver, dialect := driverFor(cfg.Driver)

	db, err := sql.Open(driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// Each sqlite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	logger := observability.LoggerFromContext(ctx)
	err = retry.Do(ctx, retry.DefaultConfig(), cfg.Driver,
		func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).
				Int("attempt", attempt).
				Dur("retry_in", nextDelay).
				Str("driver", cfg.Driver).
				Msg("record store connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to record store: %w", err)
	}

	logger.Info().Str("driver", cfg.Driver).Msg("connected to record store")
	return &Client{db: db, dialect: dialect}, nil
}

// NewFromDB wraps an already-open handle, for tests and embedded use.
func NewFromDB(db *sql.DB, dialect string) *Client {
	return &Client{db: db, dialect: dialect}
}

func driverFor(name string) (driver, dialect string) {
	if name == "sqlite" {
		return "sqlite", "sqlite3"
	}
	return "postgres", "postgres"
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name matching the driver.
func (c *Client) Dialect() string {
	return c.dialect
}

// Goqu returns a query builder bound to the connection.
func (c *Client) Goqu() *goqu.Database {
	return goqu.New(c.dialect, c.db)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

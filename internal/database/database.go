package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// defaultStatementTimeout bounds every warehouse and checkpoint statement
// so a stuck connection cannot stall the whole backfill.
const defaultStatementTimeout = 30 * time.Second

// DB wraps the PostgreSQL connection used for both the market data fact
// table and the ingestion checkpoint table.
type DB struct {
	conn        *sql.DB
	stmtTimeout time.Duration
}

// New connects to PostgreSQL and verifies the connection
func New(connStr string) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn, stmtTimeout: defaultStatementTimeout}, nil
}

// SetStatementTimeout overrides the per-statement timeout
func (db *DB) SetStatementTimeout(d time.Duration) {
	if d > 0 {
		db.stmtTimeout = d
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetRawConn returns the underlying sql.DB connection
func (db *DB) GetRawConn() *sql.DB {
	return db.conn
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.stmtTimeout)
}

package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB is the narrow database surface the repositories depend on. Production
// runs it over a pooled sqlx connection; tests substitute sqlmock.
type DB interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Ping() error
	Close() error
}

type postgresDB struct {
	pool *sqlx.DB
}

// NewConnection opens and verifies a Postgres pool from the configured URL
func NewConnection(cfg config.DatabaseConfig) (DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	dsn, err := poolerCompatibleURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	pool, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxConnections)
	pool.SetMaxIdleConns(cfg.MaxIdleConnections)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &postgresDB{pool: pool}, nil
}

// poolerCompatibleURL forces the simple query protocol so prepared
// statements survive transaction-mode poolers (pgbouncer, Supavisor)
func poolerCompatibleURL(raw string) (string, error) {
	if strings.Contains(raw, "prefer_simple_protocol") {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	query := parsed.Query()
	query.Set("prefer_simple_protocol", "true")
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (db *postgresDB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.pool.Get(dest, query, args...)
}

func (db *postgresDB) Select(dest interface{}, query string, args ...interface{}) error {
	return db.pool.Select(dest, query, args...)
}

func (db *postgresDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.pool.Exec(query, args...)
}

func (db *postgresDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.pool.QueryRow(query, args...)
}

func (db *postgresDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.pool.Query(query, args...)
}

func (db *postgresDB) Ping() error {
	return db.pool.Ping()
}

func (db *postgresDB) Close() error {
	return db.pool.Close()
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"coverletter-backend/internal/shared/telemetry"
)

// ErrMissingURL is returned when DATABASE_URL is blank.
var ErrMissingURL = errors.New("DATABASE_URL is empty")

// Options controls pool sizing and per-session settings.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// StatementTimeout is sent as the statement_timeout session parameter.
	// Zero leaves the server default.
	StatementTimeout time.Duration
	ApplicationName  string
}

// openDB is swapped in tests to avoid a real server.
var openDB = func(cfg *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cfg)
}

// DefaultServerOptions returns defaults for the API and worker processes.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:     10,
		MaxIdleConns:     5,
		ConnMaxIdleTime:  2 * time.Minute,
		ConnMaxLifetime:  time.Hour,
		PingTimeout:      5 * time.Second,
		StatementTimeout: 15 * time.Second,
		ApplicationName:  "coverletter-backend",
	}
}

// DefaultMigrateOptions returns defaults for short-lived CLI migrations.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		ApplicationName: "coverletter-migrate",
	}
}

// OptionsFromEnv overrides defaults with DB_* env vars. Malformed values are
// logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
	}
	for key, dst := range ints {
		if v, ok := readEnvInt(key); ok {
			*dst = v
		}
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
		"DB_STATEMENT_TIMEOUT":  &opts.StatementTimeout,
	}
	for key, dst := range durations {
		if v, ok := readEnvDuration(key); ok {
			*dst = v
		}
	}
	if name := strings.TrimSpace(os.Getenv("DB_APPLICATION_NAME")); name != "" {
		opts.ApplicationName = name
	}
	return opts
}

// Connect parses databaseURL with pgx, opens a pooled *sql.DB on the pgx
// stdlib driver and pings it. Callers share the returned handle.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrMissingURL
	}

	connCfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.ApplicationName != "" {
		connCfg.RuntimeParams["application_name"] = opts.ApplicationName
	}
	if opts.StatementTimeout > 0 {
		connCfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}

	db := openDB(connCfg)
	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", connCfg.Host, err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"host":        connCfg.Host,
		"database":    connCfg.Database,
		"application": opts.ApplicationName,
		"max_open":    stats.MaxOpenConnections,
	})
	return db, nil
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(min(opts.MaxIdleConns, opts.MaxOpenConns))
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env.invalid", map[string]any{"key": key, "error": err})
		return 0, false
	}
	return val, true
}

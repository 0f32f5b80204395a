package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/timetable-scheduler/pkg/config"
)

// schema holds the tables saved timetables are written to. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS timetables (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	version INTEGER NOT NULL,
	complete BOOLEAN NOT NULL,
	requested INTEGER NOT NULL,
	placed INTEGER NOT NULL,
	meta JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (name, version)
)`,
	`CREATE TABLE IF NOT EXISTS timetable_sessions (
	id TEXT NOT NULL,
	timetable_id UUID NOT NULL REFERENCES timetables(id) ON DELETE CASCADE,
	subject_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	week_number INTEGER NOT NULL,
	week_year INTEGER NOT NULL,
	day_of_week SMALLINT NOT NULL,
	start_minute INTEGER NOT NULL,
	duration_minutes INTEGER NOT NULL,
	block_id TEXT NOT NULL DEFAULT '',
	fixed BOOLEAN NOT NULL DEFAULT FALSE,
	session_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (timetable_id, id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_timetable_sessions_week ON timetable_sessions (timetable_id, week_year, week_number)`,
}

// NewPostgres opens and pings a PostgreSQL pool.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// EnsureSchema creates the timetable tables when they are missing.
func EnsureSchema(ctx context.Context, db sqlx.ExecerContext) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

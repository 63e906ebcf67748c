package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS stop (
  id serial PRIMARY KEY,
  stop_id integer NOT NULL UNIQUE CHECK (stop_id >= 0),
  name text NOT NULL,
  direction varchar(255),
  location geometry(Point, 4326) NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS stop_location_idx ON stop USING gist (location)`,
	`CREATE TABLE IF NOT EXISTS route (
  id serial PRIMARY KEY,
  route_id integer NOT NULL CHECK (route_id >= 0),
  direction varchar(255) NOT NULL,
  type varchar(255) NOT NULL,
  name text NOT NULL,
  short_name text NOT NULL,
  description text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now(),
  UNIQUE (route_id, direction)
)`,
	`CREATE TABLE IF NOT EXISTS stop_route (
  id serial PRIMARY KEY,
  stop_id integer NOT NULL REFERENCES stop (id) ON DELETE CASCADE,
  route_id integer NOT NULL REFERENCES route (id) ON DELETE CASCADE,
  UNIQUE (stop_id, route_id)
)`,
}

// EnsureSchema creates the stop, route and stop_route tables if they do
// not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

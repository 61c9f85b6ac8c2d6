package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the minimal table set on startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS schedule_plans (
            guid UUID PRIMARY KEY,
            label TEXT NOT NULL,
            strategy JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS participants (
            id TEXT PRIMARY KEY,
            email TEXT,
            roles JSONB NOT NULL,
            enrolled_at TIMESTAMPTZ NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS scheduled_activities (
            guid UUID PRIMARY KEY,
            schedule_plan_guid UUID NOT NULL,
            participant_id TEXT NOT NULL REFERENCES participants(id),
            activity JSONB NOT NULL,
            activity_guid UUID NOT NULL,
            task_identifier TEXT,
            scheduled_on TIMESTAMPTZ NOT NULL,
            expires_on TIMESTAMPTZ,
            started_on TIMESTAMPTZ,
            finished_on TIMESTAMPTZ,
            client_data JSONB
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_scheduled_activities_identity
            ON scheduled_activities(participant_id, schedule_plan_guid, activity_guid, scheduled_on);`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_activities_history
            ON scheduled_activities(participant_id, scheduled_on, guid);`,
		`CREATE TABLE IF NOT EXISTS upload_schemas (
            schema_id TEXT NOT NULL,
            revision INT NOT NULL,
            version BIGINT,
            name TEXT NOT NULL,
            schema_type TEXT NOT NULL,
            survey_guid TEXT,
            survey_created_on TIMESTAMPTZ,
            field_definitions JSONB NOT NULL,
            PRIMARY KEY (schema_id, revision)
        );`,
	}
	for _, q := range ddl {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS incidents (
	id              uuid PRIMARY KEY,
	user_id         text NOT NULL,
	type            text NOT NULL CHECK (type IN ('roadblock', 'accident')),
	latitude        double precision NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude       double precision NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	media_kind      text NOT NULL CHECK (media_kind IN ('photo', 'video')),
	media_uri       text NOT NULL,
	notes           text,
	location_name   text,
	reported_at     timestamptz NOT NULL,
	active          boolean NOT NULL DEFAULT true,
	verified_count  integer NOT NULL DEFAULT 0 CHECK (verified_count >= 0),
	dismissed_count integer NOT NULL DEFAULT 0 CHECK (dismissed_count >= 0)
);

CREATE INDEX IF NOT EXISTS incidents_active_idx ON incidents (reported_at DESC) WHERE active;
CREATE INDEX IF NOT EXISTS incidents_user_idx ON incidents (user_id, reported_at DESC);

CREATE TABLE IF NOT EXISTS verifications (
	id          uuid PRIMARY KEY,
	incident_id uuid NOT NULL REFERENCES incidents (id),
	user_id     text NOT NULL,
	action      text NOT NULL CHECK (action IN ('confirm', 'dismiss')),
	created_at  timestamptz NOT NULL,
	CONSTRAINT verifications_user_incident_key UNIQUE (user_id, incident_id)
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id              text PRIMARY KEY,
	siren_enabled        boolean NOT NULL,
	vibration_enabled    boolean NOT NULL,
	popup_alerts_enabled boolean NOT NULL,
	alert_distance_m     integer NOT NULL CHECK (alert_distance_m > 0),
	updated_at           timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS location_checks (
	id           uuid PRIMARY KEY,
	user_id      text NOT NULL,
	lat          double precision NOT NULL,
	lng          double precision NOT NULL,
	incident_ids uuid[] NOT NULL DEFAULT '{}',
	checked_at   timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS location_checks_checked_at_idx ON location_checks (checked_at);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

package repository

// Migrations are idempotent and run in order at startup.

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS lab_upload (
		id            UUID PRIMARY KEY,
		user_id       TEXT        NOT NULL,
		filename      TEXT        NOT NULL,
		mime_type     TEXT        NOT NULL,
		file_size     INTEGER     NOT NULL,
		content_hash  BYTEA       NOT NULL,
		status        TEXT        NOT NULL,
		method        TEXT,
		confidence    REAL,
		needs_review  BOOLEAN     NOT NULL DEFAULT FALSE,
		result_count  INTEGER     NOT NULL DEFAULT 0,
		error_stage   TEXT,
		error_message TEXT,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS lab_upload_user_hash_idx ON lab_upload (user_id, content_hash)`,
	`CREATE TABLE IF NOT EXISTS lab_result (
		id           UUID PRIMARY KEY,
		user_id      TEXT        NOT NULL,
		file_id      UUID REFERENCES lab_upload (id) ON DELETE SET NULL,
		test_name    TEXT        NOT NULL,
		test_date    TEXT        NOT NULL,
		result       TEXT        NOT NULL,
		unit         TEXT,
		normal_range TEXT,
		notes        TEXT        NOT NULL DEFAULT '',
		confidence   TEXT        NOT NULL,
		panel        TEXT        NOT NULL,
		source       TEXT        NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lab_result_user_created_idx ON lab_result (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS lab_result_file_idx ON lab_result (file_id)`,
}

var sqliteMigrations = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS lab_upload (
		id            TEXT PRIMARY KEY,
		user_id       TEXT      NOT NULL,
		filename      TEXT      NOT NULL,
		mime_type     TEXT      NOT NULL,
		file_size     INTEGER   NOT NULL,
		content_hash  BLOB      NOT NULL,
		status        TEXT      NOT NULL,
		method        TEXT,
		confidence    REAL,
		needs_review  BOOLEAN   NOT NULL DEFAULT 0,
		result_count  INTEGER   NOT NULL DEFAULT 0,
		error_stage   TEXT,
		error_message TEXT,
		started_at    TIMESTAMP NOT NULL,
		finished_at   TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS lab_upload_user_hash_idx ON lab_upload (user_id, content_hash)`,
	`CREATE TABLE IF NOT EXISTS lab_result (
		id           TEXT PRIMARY KEY,
		user_id      TEXT      NOT NULL,
		file_id      TEXT REFERENCES lab_upload (id) ON DELETE SET NULL,
		test_name    TEXT      NOT NULL,
		test_date    TEXT      NOT NULL,
		result       TEXT      NOT NULL,
		unit         TEXT,
		normal_range TEXT,
		notes        TEXT      NOT NULL DEFAULT '',
		confidence   TEXT      NOT NULL,
		panel        TEXT      NOT NULL,
		source       TEXT      NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lab_result_user_created_idx ON lab_result (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS lab_result_file_idx ON lab_result (file_id)`,
}

// internal/postgres/migrate.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied idempotently on startup and by the migrate command.
//
// The partial unique index on borrow_records is the storage-level guard
// against two open loans for the same book: even if two borrow transactions
// race past the availability check, the second insert fails with a unique
// violation and rolls back.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	salt          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staff (
	id            UUID PRIMARY KEY,
	account_id    UUID NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
	employee_id   TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'Librarian',
	gender        TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	hire_date     DATE NOT NULL DEFAULT CURRENT_DATE,
	is_blocked    BOOLEAN NOT NULL DEFAULT FALSE,
	login_time    TIMESTAMPTZ,
	last_activity TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS members (
	id            UUID PRIMARY KEY,
	account_id    UUID NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
	member_id     TEXT NOT NULL,
	gender        TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	join_date     DATE NOT NULL DEFAULT CURRENT_DATE,
	expiry_date   DATE NOT NULL,
	is_blocked    BOOLEAN NOT NULL DEFAULT FALSE,
	login_time    TIMESTAMPTZ,
	last_activity TIMESTAMPTZ,
	borrow_count  INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS books (
	id             UUID PRIMARY KEY,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL,
	price          INT NOT NULL DEFAULT 0,
	published_date DATE NOT NULL DEFAULT CURRENT_DATE,
	isbn           TEXT NOT NULL UNIQUE,
	pages          INT NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'available',
	genre          TEXT NOT NULL,
	cover_path     TEXT,
	added_on       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_on     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS borrow_records (
	id          UUID PRIMARY KEY,
	book_id     UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	member_id   UUID NOT NULL REFERENCES members(id) ON DELETE CASCADE,
	borrow_date DATE NOT NULL,
	due_date    DATE NOT NULL,
	return_date DATE,
	is_returned BOOLEAN NOT NULL DEFAULT FALSE,
	is_overdue  BOOLEAN NOT NULL DEFAULT FALSE,
	fine        INT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_one_open_per_book
	ON borrow_records (book_id) WHERE NOT is_returned;

CREATE INDEX IF NOT EXISTS borrow_records_member
	ON borrow_records (member_id, borrow_date DESC);

CREATE TABLE IF NOT EXISTS loan_events (
	id         BIGSERIAL PRIMARY KEY,
	record_id  UUID NOT NULL,
	book_id    UUID NOT NULL,
	member_id  UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS loan_events_record ON loan_events (record_id, id);
`

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// internal/ledgerlog/ledgerlog.go
package ledgerlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event types recorded by the lending workflow.
const (
	EventBookBorrowed = "BookBorrowed"
	EventBookReturned = "BookReturned"
)

// Event is one append-only entry in the loan audit trail. Borrow records are
// never deleted, and neither are these: together they answer "who had this
// book, and when" long after the loan closes.
type Event struct {
	ID        int64     `json:"id" db:"id"`
	RecordID  uuid.UUID `json:"record_id" db:"record_id"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	MemberID  uuid.UUID `json:"member_id" db:"member_id"`
	EventType string    `json:"event_type" db:"event_type"`
	Payload   []byte    `json:"payload" db:"payload"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Log appends and reads loan events.
type Log struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

func New(db *sqlx.DB) *Log {
	return &Log{
		db:     db,
		tracer: otel.Tracer("librarium/ledgerlog"),
	}
}

// Append records an event. payload may be any JSON-serializable value.
func (l *Log) Append(ctx context.Context, recordID, bookID, memberID uuid.UUID, eventType string, payload interface{}) error {
	ctx, span := l.tracer.Start(ctx, "ledgerlog.append",
		trace.WithAttributes(
			attribute.String("record.id", recordID.String()),
			attribute.String("event.type", eventType),
		),
	)
	defer span.End()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO loan_events (record_id, book_id, member_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, recordID, bookID, memberID, eventType, raw)
	if err != nil {
		return fmt.Errorf("insert loan event: %w", err)
	}
	return nil
}

// ByRecord returns a record's events in append order.
func (l *Log) ByRecord(ctx context.Context, recordID uuid.UUID) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "ledgerlog.by_record",
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	defer span.End()

	events := []Event{}
	err := l.db.SelectContext(ctx, &events, `
		SELECT id, record_id, book_id, member_id, event_type, payload, created_at
		FROM loan_events
		WHERE record_id = $1
		ORDER BY id ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("load loan events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// Recent returns the newest events across all records, for the staff
// activity feed.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "ledgerlog.recent",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	events := []Event{}
	err := l.db.SelectContext(ctx, &events, `
		SELECT id, record_id, book_id, member_id, event_type, payload, created_at
		FROM loan_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent loan events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// internal/lending/implementation.go
package lending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"librarium/internal/catalog"
	"librarium/internal/ledgerlog"
)

const uniqueViolation = "23505"

const recordColumns = `id, book_id, member_id, borrow_date, due_date, return_date, is_returned, is_overdue, fine`

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	audit  *ledgerlog.Log
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a new lending service instance.
func NewService(db *sqlx.DB, audit *ledgerlog.Log) Service {
	return &service{
		db:     db,
		audit:  audit,
		tracer: otel.Tracer("librarium/lending"),
		now:    time.Now,
	}
}

// Borrow opens a loan: it locks the book row, checks availability, inserts
// the borrow record and flips the book to unavailable, all in one
// transaction. Two racing borrows therefore serialize on the row lock, and
// even if they didn't, the partial unique index on open records would reject
// the second insert.
func (s *service) Borrow(ctx context.Context, bookID, memberID uuid.UUID) (*BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "lending.borrow",
		trace.WithAttributes(
			attribute.String("book.id", bookID.String()),
			attribute.String("member.id", memberID.String()),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var memberExists bool
	if err := tx.GetContext(ctx, &memberExists, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, memberID); err != nil {
		return nil, fmt.Errorf("check member: %w", err)
	}
	if !memberExists {
		return nil, ErrMemberNotFound
	}

	var status string
	err = tx.GetContext(ctx, &status, `SELECT status FROM books WHERE id = $1 FOR UPDATE`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}
	if status != catalog.StatusAvailable {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, ErrBookUnavailable
	}

	today := dateOnly(s.now())
	record := &BorrowRecord{
		ID:         uuid.New(),
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, LoanPeriodDays),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO borrow_records (id, book_id, member_id, borrow_date, due_date)
		VALUES ($1, $2, $3, $4, $5)
	`, record.ID, record.BookID, record.MemberID, record.BorrowDate, record.DueDate)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrBookUnavailable
		}
		return nil, fmt.Errorf("insert borrow record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET status = $1, updated_on = NOW() WHERE id = $2
	`, catalog.StatusUnavailable, bookID); err != nil {
		return nil, fmt.Errorf("mark book unavailable: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE members SET borrow_count = borrow_count + 1 WHERE id = $1
	`, memberID); err != nil {
		return nil, fmt.Errorf("bump borrow count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.appendAudit(ctx, record.ID, bookID, memberID, ledgerlog.EventBookBorrowed, BorrowedPayload{
		BookID:   bookID,
		MemberID: memberID,
		DueDate:  record.DueDate,
	})

	slog.Info("book borrowed", "book_id", bookID, "member_id", memberID, "due_date", record.DueDate)
	return record, nil
}

// Return closes the open loan for (book, member): it computes the fine,
// stamps the return and makes the book available again, in one transaction.
// A second return of the same record finds no open record and fails without
// touching anything.
func (s *service) Return(ctx context.Context, bookID, memberID uuid.UUID) (*ReturnResult, error) {
	ctx, span := s.tracer.Start(ctx, "lending.return",
		trace.WithAttributes(
			attribute.String("book.id", bookID.String()),
			attribute.String("member.id", memberID.String()),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	record := &BorrowRecord{}
	err = tx.GetContext(ctx, record, `
		SELECT `+recordColumns+`
		FROM borrow_records
		WHERE book_id = $1 AND member_id = $2 AND NOT is_returned
		FOR UPDATE
	`, bookID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open record: %w", err)
	}

	today := dateOnly(s.now())
	fine := FineFor(record.DueDate, today)

	if _, err := tx.ExecContext(ctx, `
		UPDATE borrow_records
		SET return_date = $1, is_returned = TRUE, fine = $2
		WHERE id = $3
	`, today, fine, record.ID); err != nil {
		return nil, fmt.Errorf("close record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET status = $1, updated_on = NOW() WHERE id = $2
	`, catalog.StatusAvailable, bookID); err != nil {
		return nil, fmt.Errorf("mark book available: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	record.ReturnDate = &today
	record.IsReturned = true
	record.Fine = fine

	s.appendAudit(ctx, record.ID, bookID, memberID, ledgerlog.EventBookReturned, ReturnedPayload{
		BookID:     bookID,
		MemberID:   memberID,
		ReturnDate: today,
		Fine:       fine,
	})

	if fine > 0 {
		slog.Warn("book returned late", "book_id", bookID, "member_id", memberID, "fine", fine)
	} else {
		slog.Info("book returned", "book_id", bookID, "member_id", memberID)
	}
	return &ReturnResult{Record: record, Fine: fine}, nil
}

// MyLoans splits a member's records into active loans and history. Fines on
// active loans are recomputed for display only; persisting them is the job
// of ReconcileOverdue.
func (s *service) MyLoans(ctx context.Context, memberID uuid.UUID) (*LoanView, error) {
	records, err := s.memberRecords(ctx, memberID, `ORDER BY borrow_date DESC`)
	if err != nil {
		return nil, err
	}

	today := dateOnly(s.now())
	view := &LoanView{Active: []BorrowRecord{}, History: []BorrowRecord{}}
	for _, r := range records {
		if r.ReturnDate == nil {
			if Overdue(r.DueDate, today) && !r.IsReturned {
				r.Fine = FineFor(r.DueDate, today)
				r.IsOverdue = true
			} else {
				r.Fine = 0
				r.IsOverdue = false
			}
			view.Active = append(view.Active, r)
		} else {
			view.History = append(view.History, r)
		}
	}
	return view, nil
}

// History lists every record the member ever had, oldest first.
func (s *service) History(ctx context.Context, memberID uuid.UUID) ([]BorrowRecord, error) {
	return s.memberRecords(ctx, memberID, `ORDER BY borrow_date ASC`)
}

// Fines lists the member's records carrying a fine, with totals.
func (s *service) Fines(ctx context.Context, memberID uuid.UUID) (*FineSummary, error) {
	records, err := s.memberRecords(ctx, memberID, `ORDER BY borrow_date ASC`)
	if err != nil {
		return nil, err
	}

	summary := &FineSummary{Records: []BorrowRecord{}}
	for _, r := range records {
		if r.Fine > 0 {
			summary.Records = append(summary.Records, r)
			summary.TotalFines += r.Fine
		}
	}
	summary.TotalBooks = len(summary.Records)
	return summary, nil
}

func (s *service) memberRecords(ctx context.Context, memberID uuid.UUID, order string) ([]BorrowRecord, error) {
	records := []BorrowRecord{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT `+recordColumns+`
		FROM borrow_records
		WHERE member_id = $1
	`+order, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member records: %w", err)
	}
	return records, nil
}

// ReconcileOverdue persists fine and overdue state for every open record:
// overdue ones get the current fine, the rest are reset to zero. Idempotent,
// safe to run on a schedule. Returns how many records were marked overdue.
func (s *service) ReconcileOverdue(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "lending.reconcile_overdue")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE borrow_records
		SET fine = (CURRENT_DATE - due_date) * $1, is_overdue = TRUE
		WHERE NOT is_returned AND due_date < CURRENT_DATE
	`, FinePerDay)
	if err != nil {
		return 0, fmt.Errorf("mark overdue records: %w", err)
	}
	marked, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `
		UPDATE borrow_records
		SET fine = 0, is_overdue = FALSE
		WHERE NOT is_returned AND due_date >= CURRENT_DATE AND (fine <> 0 OR is_overdue)
	`); err != nil {
		return 0, fmt.Errorf("reset current records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Int64("records.marked", marked))
	if marked > 0 {
		slog.Info("overdue records reconciled", "marked", marked)
	}
	return marked, nil
}

// appendAudit writes to the loan event trail; the loan itself has already
// committed, so failures are logged and swallowed.
func (s *service) appendAudit(ctx context.Context, recordID, bookID, memberID uuid.UUID, eventType string, payload interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, recordID, bookID, memberID, eventType, payload); err != nil {
		slog.Warn("append loan event failed", "record_id", recordID, "event_type", eventType, "err", err)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// internal/dashboard/implementation.go
package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"librarium/internal/catalog"
)

const recentBooksShown = 4

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new dashboard service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

// StaffSummary aggregates the four staff-dashboard counters in one query.
func (s *service) StaffSummary(ctx context.Context) (*StaffSummary, error) {
	summary := &StaffSummary{}
	err := s.db.GetContext(ctx, summary, `
		SELECT
			(SELECT COUNT(*) FROM books)   AS total_books,
			(SELECT COUNT(*) FROM members) AS total_members,
			(SELECT COUNT(*) FROM borrow_records WHERE return_date IS NULL) AS active_loans,
			(SELECT COUNT(*) FROM borrow_records WHERE return_date IS NULL AND due_date < CURRENT_DATE) AS overdue_loans
	`)
	if err != nil {
		return nil, fmt.Errorf("load staff summary: %w", err)
	}
	return summary, nil
}

// MemberSummary aggregates the member's own loan counters and picks the
// newest catalog additions.
func (s *service) MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error) {
	summary := &MemberSummary{RecentBooks: []catalog.Book{}}

	row := struct {
		Borrowed int `db:"borrowed"`
		Returned int `db:"returned"`
		Fines    int `db:"fines"`
	}{}
	err := s.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) FILTER (WHERE return_date IS NULL)     AS borrowed,
			COUNT(*) FILTER (WHERE return_date IS NOT NULL) AS returned,
			COALESCE(SUM(fine), 0)                          AS fines
		FROM borrow_records
		WHERE member_id = $1
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member summary: %w", err)
	}
	summary.BorrowedBooks = row.Borrowed
	summary.ReturnedBooks = row.Returned
	summary.TotalFines = row.Fines

	err = s.db.SelectContext(ctx, &summary.RecentBooks, `
		SELECT id, title, author, price, published_date, isbn, pages, status, genre, cover_path, added_on, updated_on
		FROM books
		ORDER BY added_on DESC
		LIMIT $1
	`, recentBooksShown)
	if err != nil {
		return nil, fmt.Errorf("load recent books: %w", err)
	}

	return summary, nil
}

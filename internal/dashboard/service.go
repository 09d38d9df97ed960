// internal/dashboard/service.go
package dashboard

import (
	"context"

	"github.com/google/uuid"

	"librarium/internal/catalog"
)

// StaffSummary is the staff landing page: catalog and circulation totals.
type StaffSummary struct {
	TotalBooks   int `json:"total_books" db:"total_books"`
	TotalMembers int `json:"total_members" db:"total_members"`
	ActiveLoans  int `json:"active_loans" db:"active_loans"`
	OverdueLoans int `json:"overdue_loans" db:"overdue_loans"`
}

// MemberSummary is the member landing page: the caller's own loan totals and
// the newest additions to the catalog.
type MemberSummary struct {
	BorrowedBooks int            `json:"borrowed_books"`
	ReturnedBooks int            `json:"returned_books"`
	TotalFines    int            `json:"total_fines"`
	RecentBooks   []catalog.Book `json:"recent_books"`
}

// Service defines the interface for dashboard rollups. All reads, no side
// effects.
type Service interface {
	StaffSummary(ctx context.Context) (*StaffSummary, error)
	MemberSummary(ctx context.Context, memberID uuid.UUID) (*MemberSummary, error)
}

// internal/lending/domain.go
package lending

import (
	"time"

	"github.com/google/uuid"
)

const (
	// LoanPeriodDays is how long a member may keep a book.
	LoanPeriodDays = 14
	// FinePerDay is charged for every day past the due date.
	FinePerDay = 10
)

// BorrowRecord is one borrow-to-return cycle linking a book and a member.
// Records are created on borrow, closed on return, and never deleted.
type BorrowRecord struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookID     uuid.UUID  `json:"book_id" db:"book_id"`
	MemberID   uuid.UUID  `json:"member_id" db:"member_id"`
	BorrowDate time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`
	IsReturned bool       `json:"is_returned" db:"is_returned"`
	IsOverdue  bool       `json:"is_overdue" db:"is_overdue"`
	Fine       int        `json:"fine" db:"fine"`
}

// Open reports whether the book is still out.
func (r *BorrowRecord) Open() bool {
	return !r.IsReturned
}

// Overdue reports whether today is past the record's due date.
func Overdue(dueDate, today time.Time) bool {
	return today.After(dueDate)
}

// OverdueDays counts full days past the due date; zero when on time. Both
// arguments must be date-only values (midnight UTC).
func OverdueDays(dueDate, today time.Time) int {
	days := int(today.Sub(dueDate) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// FineFor computes the fine owed when returning on the given day: overdue
// days times the daily rate, zero on or before the due date.
func FineFor(dueDate, today time.Time) int {
	return OverdueDays(dueDate, today) * FinePerDay
}

// LoanView partitions a member's records the way the "my books" screen shows
// them. Active entries carry the fine and overdue flag recomputed for today;
// the stored record is only updated by return and reconcile.
type LoanView struct {
	Active  []BorrowRecord `json:"active"`
	History []BorrowRecord `json:"history"`
}

// ReturnResult reports the outcome of a return, including any fine applied.
type ReturnResult struct {
	Record *BorrowRecord `json:"record"`
	Fine   int           `json:"fine"`
}

// FineSummary is the member's fines screen: every record that ever carried a
// fine, plus the totals.
type FineSummary struct {
	Records    []BorrowRecord `json:"records"`
	TotalFines int            `json:"total_fines"`
	TotalBooks int            `json:"total_books"`
}

// BorrowedPayload is the audit payload written when a loan opens.
type BorrowedPayload struct {
	BookID   uuid.UUID `json:"book_id"`
	MemberID uuid.UUID `json:"member_id"`
	DueDate  time.Time `json:"due_date"`
}

// ReturnedPayload is the audit payload written when a loan closes.
type ReturnedPayload struct {
	BookID     uuid.UUID `json:"book_id"`
	MemberID   uuid.UUID `json:"member_id"`
	ReturnDate time.Time `json:"return_date"`
	Fine       int       `json:"fine"`
}

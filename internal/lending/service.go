// internal/lending/service.go
package lending

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is not available")
	ErrMemberNotFound  = errors.New("member profile not found")
	ErrRecordNotFound  = errors.New("borrow record not found")
)

// Service defines the interface for the lending workflow.
type Service interface {
	Borrow(ctx context.Context, bookID, memberID uuid.UUID) (*BorrowRecord, error)
	Return(ctx context.Context, bookID, memberID uuid.UUID) (*ReturnResult, error)
	MyLoans(ctx context.Context, memberID uuid.UUID) (*LoanView, error)
	History(ctx context.Context, memberID uuid.UUID) ([]BorrowRecord, error)
	Fines(ctx context.Context, memberID uuid.UUID) (*FineSummary, error)
	ReconcileOverdue(ctx context.Context) (int64, error)
}

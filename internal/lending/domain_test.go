// internal/lending/domain_test.go
package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFineFor(t *testing.T) {
	// Borrow on day 0, due on day 14.
	borrowed := date(2025, 3, 1)
	due := borrowed.AddDate(0, 0, LoanPeriodDays)

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"returned same day", borrowed, 0},
		{"returned on the due date", due, 0},
		{"one day late", due.AddDate(0, 0, 1), FinePerDay},
		{"returned on day twenty", borrowed.AddDate(0, 0, 20), 60},
		{"a month late", due.AddDate(0, 0, 30), 30 * FinePerDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FineFor(due, tt.today))
		})
	}
}

func TestOverdue(t *testing.T) {
	due := date(2025, 3, 15)

	assert.False(t, Overdue(due, date(2025, 3, 14)))
	assert.False(t, Overdue(due, due))
	assert.True(t, Overdue(due, date(2025, 3, 16)))
}

func TestFineProperties(t *testing.T) {
	base := date(2024, 1, 1)

	t.Run("fine is never negative and always a multiple of the rate", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			dueOffset := rapid.IntRange(0, 1000).Draw(t, "dueOffset")
			todayOffset := rapid.IntRange(0, 1000).Draw(t, "todayOffset")

			due := base.AddDate(0, 0, dueOffset)
			today := base.AddDate(0, 0, todayOffset)

			fine := FineFor(due, today)
			if fine < 0 {
				t.Fatalf("negative fine %d", fine)
			}
			if fine%FinePerDay != 0 {
				t.Fatalf("fine %d is not a multiple of %d", fine, FinePerDay)
			}
		})
	})

	t.Run("fine grows by the daily rate per extra day", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			due := base.AddDate(0, 0, rapid.IntRange(0, 500).Draw(t, "dueOffset"))
			late := rapid.IntRange(1, 500).Draw(t, "daysLate")

			today := due.AddDate(0, 0, late)
			if got := FineFor(due, today); got != late*FinePerDay {
				t.Fatalf("%d days late: fine %d, expected %d", late, got, late*FinePerDay)
			}
			if next := FineFor(due, today.AddDate(0, 0, 1)); next-FineFor(due, today) != FinePerDay {
				t.Fatalf("fine did not grow by %d for one extra day", FinePerDay)
			}
		})
	})
}

func TestBorrowRecordOpen(t *testing.T) {
	r := &BorrowRecord{}
	assert.True(t, r.Open())
	r.IsReturned = true
	assert.False(t, r.Open())
}

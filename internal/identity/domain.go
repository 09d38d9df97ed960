// internal/identity/domain.go
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Gender values accepted at signup.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Staff roles.
const (
	RoleLibrarian          = "Librarian"
	RoleAssistantLibrarian = "Assistant Librarian"
	RoleLibraryAdmin       = "Library Admin"
)

// Status is the derived liveness classification of a staff or member
// profile. It is computed from stored fields on every read, never persisted.
type Status string

const (
	StatusBlocked  Status = "Blocked"
	StatusInactive Status = "Inactive"
	StatusOnline   Status = "Online"
	StatusAway     Status = "Away"
	StatusOffline  Status = "Offline"
)

// Account carries the login identity shared by staff and members.
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Staff is a librarian profile attached to an account.
type Staff struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AccountID    uuid.UUID  `json:"account_id" db:"account_id"`
	EmployeeID   string     `json:"employee_id" db:"employee_id"`
	Role         string     `json:"role" db:"role"`
	Gender       string     `json:"gender" db:"gender"`
	DateOfBirth  time.Time  `json:"date_of_birth" db:"date_of_birth"`
	HireDate     time.Time  `json:"hire_date" db:"hire_date"`
	IsBlocked    bool       `json:"is_blocked" db:"is_blocked"`
	LoginTime    *time.Time `json:"login_time,omitempty" db:"login_time"`
	LastActivity *time.Time `json:"last_activity,omitempty" db:"last_activity"`
}

// Member is a borrower profile attached to an account.
type Member struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	AccountID    uuid.UUID  `json:"account_id" db:"account_id"`
	MemberID     string     `json:"member_id" db:"member_id"`
	Gender       string     `json:"gender" db:"gender"`
	DateOfBirth  time.Time  `json:"date_of_birth" db:"date_of_birth"`
	JoinDate     time.Time  `json:"join_date" db:"join_date"`
	ExpiryDate   time.Time  `json:"expiry_date" db:"expiry_date"`
	IsBlocked    bool       `json:"is_blocked" db:"is_blocked"`
	LoginTime    *time.Time `json:"login_time,omitempty" db:"login_time"`
	LastActivity *time.Time `json:"last_activity,omitempty" db:"last_activity"`
	BorrowCount  int        `json:"borrow_count" db:"borrow_count"`
}

// Status derives the member's liveness at the given instant.
func (m *Member) Status(now time.Time) Status {
	return DeriveStatus(m.IsBlocked, m.LastActivity, now)
}

// Age returns the member's age in whole years at the given date.
func (m *Member) Age(today time.Time) int {
	return AgeAt(m.DateOfBirth, today)
}

// Status derives the staff profile's liveness at the given instant.
func (s *Staff) Status(now time.Time) Status {
	return DeriveStatus(s.IsBlocked, s.LastActivity, now)
}

// Age returns the staff member's age in whole years at the given date.
func (s *Staff) Age(today time.Time) int {
	return AgeAt(s.DateOfBirth, today)
}

// DeriveStatus classifies a profile from its blocked flag and the recency of
// its last activity. Rules are evaluated in order, first match wins:
// blocked, never active, active within 5 minutes, within an hour, within a
// day, idle beyond 30 days, otherwise Offline.
//
// Anything idle between 24 hours and 30 days falls through to the final
// Offline case, so the 30-day rule only fires after a full month of silence.
// The rule order is kept exactly as the product defined it; see DESIGN.md
// before reordering.
func DeriveStatus(isBlocked bool, lastActivity *time.Time, now time.Time) Status {
	if isBlocked {
		return StatusBlocked
	}
	if lastActivity == nil {
		return StatusInactive
	}

	diff := now.Sub(*lastActivity)
	switch {
	case diff < 5*time.Minute:
		return StatusOnline
	case diff < time.Hour:
		return StatusAway
	case diff < 24*time.Hour:
		return StatusOffline
	case diff > 30*24*time.Hour:
		return StatusInactive
	default:
		return StatusOffline
	}
}

// AgeAt computes age in whole years, counting a year only once the birthday
// has passed.
func AgeAt(dateOfBirth, today time.Time) int {
	age := today.Year() - dateOfBirth.Year()
	if today.Month() < dateOfBirth.Month() ||
		(today.Month() == dateOfBirth.Month() && today.Day() < dateOfBirth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// MembershipTerm is how long a new membership remains valid.
const MembershipTerm = 365 * 24 * time.Hour

// internal/identity/service.go
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWrongSignupCode    = errors.New("wrong staff signup code")
	ErrMemberNotFound     = errors.New("member profile not found")
	ErrStaffNotFound      = errors.New("staff profile not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRateLimited        = errors.New("too many attempts, slow down")
)

// SignupInput is the shared profile data collected at registration.
type SignupInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Gender      string
	DateOfBirth string // YYYY-MM-DD
}

// Session is the result of a successful login.
type Session struct {
	Account *Account `json:"account"`
	IsStaff bool     `json:"is_staff"`
	Token   string   `json:"token"`
}

// MemberOverview is a roster row with the derived status attached.
type MemberOverview struct {
	Member
	Status Status `json:"status"`
	Age    int    `json:"age"`
}

// Roster is the staff view over all members.
type Roster struct {
	Members  []MemberOverview `json:"members"`
	Active   int              `json:"active"`
	Inactive int              `json:"inactive"`
	Blocked  int              `json:"blocked"`
}

// TokenIssuer mints a session token for an authenticated account.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, isStaff bool) (string, error)
}

// Service defines the interface for the identity service.
type Service interface {
	SignupMember(ctx context.Context, input SignupInput) (*Member, error)
	SignupStaff(ctx context.Context, input SignupInput, signupCode string) (*Staff, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, current, next string) error
	MemberByAccount(ctx context.Context, accountID uuid.UUID) (*Member, error)
	StaffByAccount(ctx context.Context, accountID uuid.UUID) (*Staff, error)
	TouchActivity(ctx context.Context, accountID uuid.UUID) error
	ListMembers(ctx context.Context) (*Roster, error)
}

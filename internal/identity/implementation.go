// internal/identity/implementation.go
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/time/rate"
)

const uniqueViolation = "23505"

// service implements the Service interface.
type service struct {
	db          *sqlx.DB
	tokens      TokenIssuer
	signupCode  string
	rateLimiter *rate.Limiter
	now         func() time.Time
}

// NewService creates a new identity service instance. signupCode gates staff
// registration.
func NewService(db *sqlx.DB, tokens TokenIssuer, signupCode string) Service {
	return &service{
		db:          db,
		tokens:      tokens,
		signupCode:  signupCode,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute), 5),
		now:         time.Now,
	}
}

// SignupMember registers an account with a member profile.
func (s *service) SignupMember(ctx context.Context, input SignupInput) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	account, dob, err := s.prepareAccount(input)
	if err != nil {
		return nil, err
	}

	today := dateOnly(s.now())
	member := &Member{
		ID:          uuid.New(),
		AccountID:   account.ID,
		MemberID:    displayID("MBR", account.ID),
		Gender:      input.Gender,
		DateOfBirth: dob,
		JoinDate:    today,
		ExpiryDate:  today.Add(MembershipTerm),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAccount(ctx, tx, account); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (id, account_id, member_id, gender, date_of_birth, join_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, member.ID, member.AccountID, member.MemberID, member.Gender, member.DateOfBirth, member.JoinDate, member.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("member registered", "member_id", member.MemberID, "username", account.Username)
	return member, nil
}

// SignupStaff registers an account with a staff profile. It requires the
// staff signup code handed out by the library admin.
func (s *service) SignupStaff(ctx context.Context, input SignupInput, signupCode string) (*Staff, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	if signupCode != s.signupCode {
		return nil, ErrWrongSignupCode
	}

	account, dob, err := s.prepareAccount(input)
	if err != nil {
		return nil, err
	}

	staff := &Staff{
		ID:          uuid.New(),
		AccountID:   account.ID,
		EmployeeID:  displayID("STF", account.ID),
		Role:        RoleLibrarian,
		Gender:      input.Gender,
		DateOfBirth: dob,
		HireDate:    dateOnly(s.now()),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAccount(ctx, tx, account); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO staff (id, account_id, employee_id, role, gender, date_of_birth, hire_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, staff.ID, staff.AccountID, staff.EmployeeID, staff.Role, staff.Gender, staff.DateOfBirth, staff.HireDate)
	if err != nil {
		return nil, fmt.Errorf("insert staff: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("staff registered", "employee_id", staff.EmployeeID, "username", account.Username)
	return staff, nil
}

func (s *service) prepareAccount(input SignupInput) (*Account, time.Time, error) {
	dob, err := time.Parse("2006-01-02", input.DateOfBirth)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse date of birth: %w", err)
	}

	hash, salt, err := hashPassword(input.Password)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("hash password: %w", err)
	}

	return &Account{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Salt:         salt,
	}, dob, nil
}

func insertAccount(ctx context.Context, tx *sqlx.Tx, account *Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, first_name, last_name, password_hash, salt)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, account.ID, account.Username, account.Email, account.FirstName, account.LastName, account.PasswordHash, account.Salt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Login verifies credentials and mints a session token. The login instant is
// also recorded as the profile's first activity sample.
func (s *service) Login(ctx context.Context, username, password string) (*Session, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	account := &Account{}
	err := s.db.GetContext(ctx, account, `
		SELECT id, username, email, first_name, last_name, password_hash, salt, created_at
		FROM accounts
		WHERE username = $1
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	ok, err := verifyPassword(password, account.Salt, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	isStaff, err := s.recordLogin(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID, isStaff)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	slog.Info("login", "username", account.Username, "is_staff", isStaff)
	return &Session{Account: account, IsStaff: isStaff, Token: token}, nil
}

// recordLogin stamps login_time and last_activity on whichever profile the
// account owns and reports whether it is a staff profile.
func (s *service) recordLogin(ctx context.Context, accountID uuid.UUID) (bool, error) {
	now := s.now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE staff SET login_time = $1, last_activity = $1 WHERE account_id = $2
	`, now, accountID)
	if err != nil {
		return false, fmt.Errorf("record staff login: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE members SET login_time = $1, last_activity = $1 WHERE account_id = $2
	`, now, accountID)
	if err != nil {
		return false, fmt.Errorf("record member login: %w", err)
	}
	return false, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *service) ChangePassword(ctx context.Context, accountID uuid.UUID, current, next string) error {
	account := &Account{}
	err := s.db.GetContext(ctx, account, `
		SELECT id, username, password_hash, salt FROM accounts WHERE id = $1
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	ok, err := verifyPassword(current, account.Salt, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, salt, err := hashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = $1, salt = $2 WHERE id = $3
	`, hash, salt, accountID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// MemberByAccount resolves the member profile owned by an account.
func (s *service) MemberByAccount(ctx context.Context, accountID uuid.UUID) (*Member, error) {
	member := &Member{}
	err := s.db.GetContext(ctx, member, `
		SELECT id, account_id, member_id, gender, date_of_birth, join_date, expiry_date,
		       is_blocked, login_time, last_activity, borrow_count
		FROM members
		WHERE account_id = $1
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// StaffByAccount resolves the staff profile owned by an account.
func (s *service) StaffByAccount(ctx context.Context, accountID uuid.UUID) (*Staff, error) {
	staff := &Staff{}
	err := s.db.GetContext(ctx, staff, `
		SELECT id, account_id, employee_id, role, gender, date_of_birth, hire_date,
		       is_blocked, login_time, last_activity
		FROM staff
		WHERE account_id = $1
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return staff, nil
}

// TouchActivity stamps last_activity on the account's profile. Called by the
// activity middleware on every authenticated request, so it must stay cheap
// and must never fail the request.
func (s *service) TouchActivity(ctx context.Context, accountID uuid.UUID) error {
	now := s.now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE staff SET last_activity = $1 WHERE account_id = $2
	`, now, accountID)
	if err != nil {
		return fmt.Errorf("touch staff activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE members SET last_activity = $1 WHERE account_id = $2
	`, now, accountID)
	if err != nil {
		return fmt.Errorf("touch member activity: %w", err)
	}
	return nil
}

// ListMembers returns every member with derived status, bucketed into the
// roster counters the staff screen shows.
func (s *service) ListMembers(ctx context.Context) (*Roster, error) {
	var members []Member
	err := s.db.SelectContext(ctx, &members, `
		SELECT id, account_id, member_id, gender, date_of_birth, join_date, expiry_date,
		       is_blocked, login_time, last_activity, borrow_count
		FROM members
		ORDER BY join_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	now := s.now()
	roster := &Roster{Members: make([]MemberOverview, 0, len(members))}
	for _, m := range members {
		status := m.Status(now)
		switch status {
		case StatusBlocked:
			roster.Blocked++
		case StatusInactive:
			roster.Inactive++
		default:
			roster.Active++
		}
		roster.Members = append(roster.Members, MemberOverview{
			Member: m,
			Status: status,
			Age:    m.Age(now),
		})
	}
	return roster, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func displayID(prefix string, id uuid.UUID) string {
	return prefix + "-" + strings.ToUpper(id.String()[:8])
}

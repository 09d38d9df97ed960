// internal/identity/handler.go
package identity

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"librarium/internal/httpjson"
)

var validate = validator.New()

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type signupRequest struct {
	Role        string `json:"role" validate:"required,oneof=member staff"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	SignupCode  string `json:"signup_code,omitempty"`
}

// HandleSignup registers a member, or a staff profile when the request
// carries the staff signup code.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	input := SignupInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
	}

	if req.Role == "staff" {
		staff, err := h.service.SignupStaff(r.Context(), input, req.SignupCode)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, staff)
		return
	}

	member, err := h.service.SignupMember(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, member)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates and returns a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, session)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// HandleChangePassword rotates the caller's password after re-verifying the
// current one.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req changePasswordRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// HandleListMembers serves the staff roster with derived statuses.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	roster, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, roster)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpjson.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrWrongSignupCode):
		httpjson.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrStaffNotFound), errors.Is(err, ErrAccountNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRateLimited):
		httpjson.Error(w, http.StatusTooManyRequests, err.Error())
	default:
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// internal/lending/handler.go
package lending

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarium/internal/httpjson"
	"librarium/internal/identity"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleBorrow checks the book out to the calling member.
func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	member, ok := callerMember(w, r)
	if !ok {
		return
	}
	bookID, ok := bookID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Borrow(r.Context(), bookID, member.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, record)
}

// HandleReturn closes the caller's open loan on the book. A fine, when one
// applies, rides along in the response.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	member, ok := callerMember(w, r)
	if !ok {
		return
	}
	bookID, ok := bookID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Return(r.Context(), bookID, member.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, result)
}

// HandleMyLoans serves the caller's active loans and history.
func (h *Handler) HandleMyLoans(w http.ResponseWriter, r *http.Request) {
	member, ok := callerMember(w, r)
	if !ok {
		return
	}

	view, err := h.service.MyLoans(r.Context(), member.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

// HandleHistory serves the caller's full borrow history, oldest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	member, ok := callerMember(w, r)
	if !ok {
		return
	}

	records, err := h.service.History(r.Context(), member.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, records)
}

// HandleFines serves the caller's fines and their total.
func (h *Handler) HandleFines(w http.ResponseWriter, r *http.Request) {
	member, ok := callerMember(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Fines(r.Context(), member.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, summary)
}

// HandleReconcile persists overdue state on open records (staff only).
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	marked, err := h.service.ReconcileOverdue(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int64{"marked_overdue": marked})
}

func callerMember(w http.ResponseWriter, r *http.Request) (*identity.Member, bool) {
	principal, ok := identity.PrincipalFrom(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated")
		return nil, false
	}
	if principal.Member == nil {
		httpjson.Error(w, http.StatusNotFound, ErrMemberNotFound.Error())
		return nil, false
	}
	return principal.Member, true
}

func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid book ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrMemberNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBookUnavailable):
		httpjson.Error(w, http.StatusConflict, err.Error())
	default:
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// internal/dashboard/handler.go
package dashboard

import (
	"net/http"
	"strconv"

	"librarium/internal/httpjson"
	"librarium/internal/identity"
	"librarium/internal/ledgerlog"
)

const (
	defaultActivityShown = 20
	maxActivityShown     = 100
)

type Handler struct {
	service  Service
	activity *ledgerlog.Log
}

func NewHandler(service Service, activity *ledgerlog.Log) *Handler {
	return &Handler{service: service, activity: activity}
}

// HandleStaffSummary serves the staff dashboard counters.
func (h *Handler) HandleStaffSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.StaffSummary(r.Context())
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, summary)
}

// HandleActivity serves the staff activity feed: the newest loan events
// across all records.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityShown
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpjson.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxActivityShown {
		limit = maxActivityShown
	}

	events, err := h.activity.Recent(r.Context(), limit)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, events)
}

// HandleMemberSummary serves the caller's home page rollup. Staff callers
// have no loans of their own; they get an empty summary rather than an
// error, mirroring the home page behavior.
func (h *Handler) HandleMemberSummary(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFrom(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if principal.Member == nil {
		httpjson.Write(w, http.StatusOK, &MemberSummary{RecentBooks: nil})
		return
	}

	summary, err := h.service.MemberSummary(r.Context(), principal.Member.ID)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, summary)
}

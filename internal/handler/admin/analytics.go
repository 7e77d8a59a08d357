package admin

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/service"
)

type AnalyticsHandler struct {
	analytics service.AnalyticsService
}

func NewAnalyticsHandler(analytics service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// List handles GET /analytics?info_name=&type=&from=&to=
//
// Admins may pick any group and owner. Teachers and marketers only ever see
// their own counters.
func (h *AnalyticsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseAnalyticsQuery(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user := handler.CurrentUser(r)
	switch user.Role {
	case domain.RoleTeacher:
		q.ForGroup, q.OwnerID = domain.GroupTeacher, user.ID
	case domain.RoleMarketer:
		q.ForGroup, q.OwnerID = domain.GroupMarketer, user.ID
	}

	rows, err := h.analytics.List(r.Context(), q)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"analytics": handler.MapSlice(rows, handler.NewAnalyticResponse)})
}

func parseAnalyticsQuery(r *http.Request) (service.AnalyticsQuery, error) {
	v := r.URL.Query()

	q := service.AnalyticsQuery{
		InfoName: v.Get("info_name"),
		ForGroup: v.Get("for_group"),
		Type:     v.Get("type"),
	}

	var verr error
	if s := v.Get("from"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			verr = domain.AddFieldError(verr, "from", "must be a date (YYYY-MM-DD)")
		}
		q.From = t
	}
	if s := v.Get("to"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			verr = domain.AddFieldError(verr, "to", "must be a date (YYYY-MM-DD)")
		}
		q.To = t
	}
	if s := v.Get("owner_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			verr = domain.AddFieldError(verr, "owner_id", "must be a valid id")
		}
		q.OwnerID = id
	}
	return q, verr
}

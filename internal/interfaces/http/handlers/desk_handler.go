package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/RTO-Desk/internal/application/licensing"
	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// StatisticsRefresher drops cached statistics so the next read goes to the
// backend.
type StatisticsRefresher interface {
	Invalidate(ctx context.Context) error
}

// DeskHandler serves the licence desk.
type DeskHandler struct {
	svc       licensing.DeskService
	refresher StatisticsRefresher
	loc       *time.Location
	logger    logging.Logger
}

// NewDeskHandler builds a DeskHandler.  refresher may be nil, in which case
// ?refresh=true is accepted and ignored.  loc is the office time zone used to
// read ?today=.
func NewDeskHandler(svc licensing.DeskService, refresher StatisticsRefresher, loc *time.Location, logger logging.Logger) *DeskHandler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DeskHandler{svc: svc, refresher: refresher, loc: loc, logger: logger.Named("http.desk")}
}

// RegisterRoutes mounts the desk under r, usually /api/v1.
func (h *DeskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/driving-licenses", func(dl chi.Router) {
		dl.Get("/view", h.View)
		dl.Get("/statistics", h.Statistics)
		dl.Get("/filters", h.Filters)
		dl.Post("/filter-state", h.FilterState)
		dl.Get("/{id}", h.Application)
	})
}

// View handles GET /driving-licenses/view.
//
// Query: page, limit, search, licenseClass, paymentStatus, filter, today
// (YYYY-MM-DD).  class and payment are accepted as short aliases.
func (h *DeskHandler) View(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	sel, err := licensing.SelectionFromTokens(
		firstParam(q, "licenseClass", "class"),
		firstParam(q, "paymentStatus", "payment"),
		q.Get("filter"),
	)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	now, err := h.parseToday(q.Get("today"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	view, err := h.svc.View(r.Context(), licensing.DeskQuery{
		Page:      page,
		Limit:     limit,
		Search:    q.Get("search"),
		Selection: sel,
		Now:       now,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, view)
}

// Application handles GET /driving-licenses/{id}.
func (h *DeskHandler) Application(w http.ResponseWriter, r *http.Request) {
	now, err := h.parseToday(r.URL.Query().Get("today"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	row, err := h.svc.Application(r.Context(), chi.URLParam(r, "id"), now)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, row)
}

// Statistics handles GET /driving-licenses/statistics.  ?refresh=true drops
// the cached tiles first.
func (h *DeskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" && h.refresher != nil {
		if err := h.refresher.Invalidate(r.Context()); err != nil {
			h.logger.Warn("statistics cache invalidation failed", logging.Err(err))
		}
	}
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, stats)
}

// Filters handles GET /driving-licenses/filters.
func (h *DeskHandler) Filters(w http.ResponseWriter, r *http.Request) {
	writeData(w, licensing.FilterCatalog())
}

// FilterStateRequest is the body of POST /driving-licenses/filter-state.
// A missing Current starts from the initial selection.
type FilterStateRequest struct {
	Current *license.FilterSelection `json:"current"`
	Action  licensing.FilterAction   `json:"action"`
	Value   string                   `json:"value"`
}

// FilterState handles POST /driving-licenses/filter-state.  It applies one
// chip interaction and returns the next selection with its label.
func (h *DeskHandler) FilterState(w http.ResponseWriter, r *http.Request) {
	var req FilterStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, r, h.logger, errors.Wrap(err, errors.CodeInvalidParam, "malformed filter-state request"))
		return
	}
	current := license.NewFilterSelection()
	if req.Current != nil {
		current = *req.Current
	}
	next, err := licensing.ApplyFilterAction(current, req.Action, req.Value)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, next)
}

func (h *DeskHandler) parseToday(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, h.loc)
	if err != nil {
		return time.Time{}, errors.Newf(errors.CodeInvalidDate, "invalid today %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

// firstParam returns the value of the first name present in q.
func firstParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}

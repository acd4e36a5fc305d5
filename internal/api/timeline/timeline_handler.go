package timeline

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appMiddleware "github.com/hmelgaard/minitwit/app/middleware"
	"github.com/hmelgaard/minitwit/app/observability/metrics"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

// legacyDateFormat matches the formatting of the old JSON listing API.
const legacyDateFormat = "2006-01-02 @ 15:04"

type TimelineHandler struct {
	TimelineService TimelineService
	logger          *slog.Logger
}

func NewTimelineHandler(timelineService TimelineService, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{
		logger:          logger,
		TimelineService: timelineService,
	}
}

// Home handles GET /timeline. Anonymous viewers get the public timeline;
// that fallback is part of the contract, not just a routing nicety.
func (h *TimelineHandler) Home(w http.ResponseWriter, r *http.Request) {
	metrics.Get().TimelineRequestsTotal.Add(r.Context(), 1)

	limit := limitParam(r)
	viewerID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		tl, err := h.TimelineService.Public(r.Context(), limit)
		h.writeTimeline(w, r, tl, err)
		return
	}

	tl, err := h.TimelineService.Home(r.Context(), viewerID, limit)
	h.writeTimeline(w, r, tl, err)
}

// Public handles GET /timeline/public.
func (h *TimelineHandler) Public(w http.ResponseWriter, r *http.Request) {
	metrics.Get().TimelineRequestsTotal.Add(r.Context(), 1)
	tl, err := h.TimelineService.Public(r.Context(), limitParam(r))
	h.writeTimeline(w, r, tl, err)
}

// User handles GET /timeline/{username}.
func (h *TimelineHandler) User(w http.ResponseWriter, r *http.Request) {
	metrics.Get().TimelineRequestsTotal.Add(r.Context(), 1)

	var viewerID *uuid.UUID
	if id, ok := appMiddleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	username := chi.URLParam(r, "username")
	tl, err := h.TimelineService.User(r.Context(), username, viewerID, limitParam(r))
	h.writeTimeline(w, r, tl, err)
}

// LegacyData handles GET /data, the old flat JSON listing of the public
// timeline with pre-formatted dates.
func (h *TimelineHandler) LegacyData(w http.ResponseWriter, r *http.Request) {
	tl, err := h.TimelineService.Public(r.Context(), 0)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, toLegacyList(tl))
}

// LegacyUserData handles GET /{username}/data.
func (h *TimelineHandler) LegacyUserData(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	tl, err := h.TimelineService.User(r.Context(), username, nil, 0)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, toLegacyList(tl))
}

func (h *TimelineHandler) writeTimeline(w http.ResponseWriter, r *http.Request, tl *types.Timeline, err error) {
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	if tl.Messages == nil {
		tl.Messages = []types.TimelineItem{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, tl)
}

func toLegacyList(tl *types.Timeline) types.LegacyMessageList {
	out := types.LegacyMessageList{Messages: []types.LegacyMessage{}}
	for _, item := range tl.Messages {
		out.Messages = append(out.Messages, types.LegacyMessage{
			Text:     item.Text,
			PubDate:  time.Unix(item.PubDate, 0).UTC().Format(legacyDateFormat),
			Username: item.Username,
		})
	}
	return out
}

func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

package follow

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/hmelgaard/minitwit/app/middleware"
	"github.com/hmelgaard/minitwit/app/observability/metrics"
	"github.com/hmelgaard/minitwit/internal/api"
)

type FollowHandler struct {
	FollowService FollowService
	logger        *slog.Logger
}

func NewFollowHandler(followService FollowService, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{
		logger:        logger,
		FollowService: followService,
	}
}

// Follow handles POST /users/{username}/follow.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	targetUsername := chi.URLParam(r, "username")
	if err := h.FollowService.FollowUser(r.Context(), viewerID, targetUsername); err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	metrics.Get().FollowActionsTotal.Add(r.Context(), 1)
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "You are now following " + targetUsername,
	})
}

// Unfollow handles DELETE /users/{username}/follow.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	targetUsername := chi.URLParam(r, "username")
	if err := h.FollowService.UnfollowUser(r.Context(), viewerID, targetUsername); err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	metrics.Get().FollowActionsTotal.Add(r.Context(), 1)
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "You are no longer following " + targetUsername,
	})
}

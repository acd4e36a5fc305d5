package message

import (
	"log/slog"
	"net/http"

	appMiddleware "github.com/hmelgaard/minitwit/app/middleware"
	"github.com/hmelgaard/minitwit/app/observability/metrics"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

type MessageHandler struct {
	MessageService MessageService
	logger         *slog.Logger
}

func NewMessageHandler(messageService MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		logger:         logger,
		MessageService: messageService,
	}
}

// Create handles POST /messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req types.CreateMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.MessageService.Post(r.Context(), viewerID, req.Text)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	metrics.Get().MessagesPostedTotal.Add(r.Context(), 1)
	api.WriteJSONResponse(w, r, http.StatusCreated, msg)
}

package auth

import (
	"log/slog"
	"net/http"

	"github.com/hmelgaard/minitwit/app/observability/metrics"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	metrics.Get().RegisterRequestsTotal.Add(r.Context(), 1)
	api.WriteJSONResponse(w, r, http.StatusCreated, types.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	metrics.Get().LoginRequestsTotal.Add(r.Context(), 1)
	api.WriteJSONResponse(w, r, http.StatusOK, types.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Message:      "Login successful",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req types.LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.AuthService.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

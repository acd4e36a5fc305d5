package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	appMiddleware "github.com/hmelgaard/minitwit/app/middleware"
	"github.com/hmelgaard/minitwit/config"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService gates registration, login and logout.
type AuthService interface {
	// Register validates the registration input and creates the user.
	// Registration does not authenticate; the caller logs in afterwards.
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, error)

	// Login authenticates a username/password pair and returns access and
	// refresh tokens. Returns api.ErrInvalidUsername when the username does
	// not resolve and api.ErrInvalidPassword on a credential mismatch.
	Login(ctx context.Context, username, password string) (string, string, error)

	// Logout revokes the refresh token. Logging out an already-anonymous
	// session is a no-op.
	Logout(ctx context.Context, refreshToken string) error

	// RefreshSession rotates a refresh token and issues a new access token.
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)

	// GetUserByID resolves an authenticated identity to its user record.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// Register applies the validation rules in order; the first failure wins.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	switch {
	case req.Username == "":
		return nil, api.NewValidationError("username", "You have to enter a username")
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return nil, api.NewValidationError("email", "You have to enter a valid E-mail address")
	case req.Password == "":
		return nil, api.NewValidationError("password", "You have to enter a password")
	case req.Password != req.Password2:
		return nil, api.NewValidationError("password2", "The two passwords do not match")
	}

	// Friendlier error ordering than relying on the insert alone; the UNIQUE
	// constraint still closes the race between this check and the insert.
	_, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return nil, fmt.Errorf("username %q: %w", req.Username, api.ErrConflict)
	}
	if !errors.Is(err, api.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, req.Username, req.Email, string(hashed))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", slog.String("username", req.Username))

	return &types.User{
		ID:       userID,
		Username: req.Username,
		Email:    req.Email,
	}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return "", "", api.ErrInvalidUsername
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", api.ErrInvalidPassword
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", err
	}

	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", err
	}

	s.logger.InfoContext(ctx, "User logged in", slog.String("username", username))
	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.InvalidateRefreshToken(ctx, refreshToken)
}

func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", err
	}

	newRefreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, newRefreshToken, expiresAt); err != nil {
		return "", "", err
	}

	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "Failed to revoke old refresh token", slog.Any("error", err))
	}

	return accessToken, newRefreshToken, nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := &appMiddleware.Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

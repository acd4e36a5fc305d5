package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for identity and session-token persistence.
type AuthRepo interface {
	// GetUserByUsername retrieves a user by username.
	// Returns api.ErrNotFound when the username is unknown.
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns api.ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// CreateUser inserts a new user with an already-hashed credential.
	// Returns api.ErrConflict when the username is already taken.
	CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error)

	// StoreRefreshToken persists a refresh token for a user.
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// ValidateRefreshTokenAndGetUserID resolves a live refresh token to its
	// user. Returns api.ErrUnauthenticated for unknown, expired or revoked
	// tokens.
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)

	// InvalidateRefreshToken revokes a refresh token. Revoking a token that
	// does not exist is a no-op.
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresAuthRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const uniqueViolationCode = "23505"

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user by username: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1",
		userID).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pgpool.QueryRow(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id",
		username, email, passwordHash).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		// The UNIQUE constraint is the authoritative uniqueness check; the
		// service's pre-check only exists for friendlier error ordering.
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return uuid.Nil, fmt.Errorf("username %q taken: %w", username, api.ErrConflict)
		}
		return uuid.Nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)",
		token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time

	err := r.pgpool.QueryRow(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1",
		refreshToken).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("unknown refresh token: %w", api.ErrUnauthenticated)
		}
		return uuid.Nil, fmt.Errorf("failed to query refresh token: %w", err)
	}

	if time.Now().After(expiresAt) || revokedAt != nil {
		return uuid.Nil, fmt.Errorf("refresh token expired or revoked: %w", api.ErrUnauthenticated)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.pgpool.Exec(ctx,
		"UPDATE refresh_tokens SET revoked_at = $1 WHERE token = $2 AND revoked_at IS NULL",
		time.Now(), refreshToken)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

package follow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hmelgaard/minitwit/internal/api"
)

var _ FollowRepo = (*PostgresFollowRepo)(nil)

// FollowRepo owns the directed follow edges between users.
type FollowRepo interface {
	// Follow inserts the (follower, followee) edge. Inserting an edge that
	// already exists is a no-op; the composite primary key guarantees at
	// most one edge per ordered pair.
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// Unfollow removes the edge. Removing a non-existent edge is a no-op.
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// IsFollowing reports whether the edge exists.
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// FolloweeIDs returns the users followerID follows. Used to build the
	// home-timeline scope.
	FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
}

type PostgresFollowRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresFollowRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresFollowRepo {
	return &PostgresFollowRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresFollowRepo) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := otel.Tracer("FollowRepo").Start(ctx, "Follow")
	defer span.End()
	span.SetAttributes(attribute.String("follower.id", followerID.String()))

	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO followers (who_id, whom_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		followerID, followeeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert follow edge: %w", err)
	}
	return nil
}

func (r *PostgresFollowRepo) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := otel.Tracer("FollowRepo").Start(ctx, "Unfollow")
	defer span.End()

	_, err := r.pgpool.Exec(ctx,
		"DELETE FROM followers WHERE who_id = $1 AND whom_id = $2",
		followerID, followeeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete follow edge: %w", err)
	}
	return nil
}

func (r *PostgresFollowRepo) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM followers WHERE who_id = $1 AND whom_id = $2)",
		followerID, followeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query follow edge: %w", err)
	}
	return exists, nil
}

func (r *PostgresFollowRepo) FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT whom_id FROM followers WHERE who_id = $1",
		followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query followees: %w", err)
	}
	defer rows.Close()

	var followees []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan followee id: %w", err)
		}
		followees = append(followees, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading followees: %w", err)
	}
	return followees, nil
}

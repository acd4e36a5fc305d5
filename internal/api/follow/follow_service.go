package follow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

var _ FollowService = (*FollowServiceImpl)(nil)

// UserResolver is the slice of the identity store the follow service needs
// to resolve target usernames.
type UserResolver interface {
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
}

// FollowService gates follow-graph mutations behind target resolution and
// the self-follow rule.
type FollowService interface {
	// FollowUser makes followerID follow the user named targetUsername.
	// Returns api.ErrNotFound when the target does not exist. Following a
	// user twice is a no-op; following yourself is a validation error.
	FollowUser(ctx context.Context, followerID uuid.UUID, targetUsername string) error

	// UnfollowUser removes the edge; a missing edge is a no-op, but an
	// unknown target username is still api.ErrNotFound.
	UnfollowUser(ctx context.Context, followerID uuid.UUID, targetUsername string) error

	// IsFollowing reports whether followerID follows followeeID.
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// FolloweeIDs returns the set of users a viewer follows.
	FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
}

type FollowServiceImpl struct {
	logger *slog.Logger
	repo   FollowRepo
	users  UserResolver
}

func NewFollowService(repo FollowRepo, users UserResolver, logger *slog.Logger) *FollowServiceImpl {
	return &FollowServiceImpl{
		logger: logger,
		repo:   repo,
		users:  users,
	}
}

func (s *FollowServiceImpl) FollowUser(ctx context.Context, followerID uuid.UUID, targetUsername string) error {
	target, err := s.users.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	if target.ID == followerID {
		return api.NewValidationError("username", "You cannot follow yourself")
	}

	if err := s.repo.Follow(ctx, followerID, target.ID); err != nil {
		return fmt.Errorf("follow %q: %w", targetUsername, err)
	}

	s.logger.InfoContext(ctx, "Follow edge created",
		slog.String("follower_id", followerID.String()),
		slog.String("followee", targetUsername))
	return nil
}

func (s *FollowServiceImpl) UnfollowUser(ctx context.Context, followerID uuid.UUID, targetUsername string) error {
	target, err := s.users.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	if err := s.repo.Unfollow(ctx, followerID, target.ID); err != nil {
		return fmt.Errorf("unfollow %q: %w", targetUsername, err)
	}

	s.logger.InfoContext(ctx, "Follow edge removed",
		slog.String("follower_id", followerID.String()),
		slog.String("followee", targetUsername))
	return nil
}

func (s *FollowServiceImpl) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followeeID)
}

func (s *FollowServiceImpl) FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.FolloweeIDs(ctx, followerID)
}

package timeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hmelgaard/minitwit/internal/types"
)

var _ TimelineService = (*TimelineServiceImpl)(nil)

// MessageReader is the slice of the message store the aggregator composes.
type MessageReader interface {
	RecentAll(ctx context.Context, limit int) ([]types.TimelineItem, error)
	RecentByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]types.TimelineItem, error)
}

// FollowReader is the slice of the follow graph the aggregator composes.
type FollowReader interface {
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
}

// UserResolver resolves usernames for the user timeline.
type UserResolver interface {
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
}

// TimelineService answers the three timeline queries. Every result is at
// most pageSize items, ordered by publication timestamp descending with
// message id as the tie-break.
type TimelineService interface {
	// Public returns the newest messages of all users. Viewer-independent.
	Public(ctx context.Context, limit int) (*types.Timeline, error)

	// Home returns the newest messages authored by the viewer or by users
	// the viewer follows.
	Home(ctx context.Context, viewerID uuid.UUID, limit int) (*types.Timeline, error)

	// User returns the newest messages of one user plus whether the viewer
	// follows them. Returns api.ErrNotFound for an unknown username. A nil
	// viewerID means anonymous; FollowedByViewer is then false.
	User(ctx context.Context, username string, viewerID *uuid.UUID, limit int) (*types.Timeline, error)
}

type TimelineServiceImpl struct {
	logger   *slog.Logger
	messages MessageReader
	follows  FollowReader
	users    UserResolver
	pageSize int

	// Short-lived username lookup cache; user timelines for hot profiles
	// hit the same row on every request.
	userCache *gocache.Cache
}

func NewTimelineService(messages MessageReader, follows FollowReader, users UserResolver, pageSize int, logger *slog.Logger) *TimelineServiceImpl {
	return &TimelineServiceImpl{
		logger:    logger,
		messages:  messages,
		follows:   follows,
		users:     users,
		pageSize:  pageSize,
		userCache: gocache.New(30*time.Second, time.Minute),
	}
}

// clampLimit caps a requested page size at the configured maximum and maps
// non-positive values to the default.
func (s *TimelineServiceImpl) clampLimit(limit int) int {
	if limit <= 0 || limit > s.pageSize {
		return s.pageSize
	}
	return limit
}

func (s *TimelineServiceImpl) Public(ctx context.Context, limit int) (*types.Timeline, error) {
	items, err := s.messages.RecentAll(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &types.Timeline{Messages: items}, nil
}

func (s *TimelineServiceImpl) Home(ctx context.Context, viewerID uuid.UUID, limit int) (*types.Timeline, error) {
	followees, err := s.follows.FolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// Home scope is the viewer plus everyone they follow.
	scope := append([]uuid.UUID{viewerID}, followees...)

	items, err := s.messages.RecentByAuthors(ctx, scope, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &types.Timeline{Messages: items}, nil
}

func (s *TimelineServiceImpl) User(ctx context.Context, username string, viewerID *uuid.UUID, limit int) (*types.Timeline, error) {
	profile, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	followed := false
	if viewerID != nil {
		followed, err = s.follows.IsFollowing(ctx, *viewerID, profile.ID)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.messages.RecentByAuthors(ctx, []uuid.UUID{profile.ID}, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}

	return &types.Timeline{
		Messages:         items,
		FollowedByViewer: followed,
	}, nil
}

func (s *TimelineServiceImpl) resolveUser(ctx context.Context, username string) (*types.User, error) {
	if cached, ok := s.userCache.Get(username); ok {
		return cached.(*types.User), nil
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(username, user, gocache.DefaultExpiration)
	return user, nil
}

package timeline

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

// MockMessageReader is a mock implementation of the MessageReader interface
type MockMessageReader struct {
	mock.Mock
}

func (m *MockMessageReader) RecentAll(ctx context.Context, limit int) ([]types.TimelineItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TimelineItem), args.Error(1)
}

func (m *MockMessageReader) RecentByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]types.TimelineItem, error) {
	args := m.Called(ctx, authorIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TimelineItem), args.Error(1)
}

// MockFollowReader is a mock implementation of the FollowReader interface
type MockFollowReader struct {
	mock.Mock
}

func (m *MockFollowReader) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowReader) FolloweeIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, followerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockUserResolver is a mock implementation of the UserResolver interface
type MockUserResolver struct {
	mock.Mock
}

func (m *MockUserResolver) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func newTestService(pageSize int) (*TimelineServiceImpl, *MockMessageReader, *MockFollowReader, *MockUserResolver) {
	messages := new(MockMessageReader)
	follows := new(MockFollowReader)
	users := new(MockUserResolver)
	return NewTimelineService(messages, follows, users, pageSize, slog.Default()), messages, follows, users
}

func TestPublicTimeline(t *testing.T) {
	ctx := context.Background()

	t.Run("ClampsLimitToPageSize", func(t *testing.T) {
		service, messages, _, _ := newTestService(30)

		messages.On("RecentAll", ctx, 30).Return([]types.TimelineItem{}, nil)

		_, err := service.Public(ctx, 100)
		assert.NoError(t, err)
		messages.AssertExpectations(t)
	})

	t.Run("DefaultsWhenZero", func(t *testing.T) {
		service, messages, _, _ := newTestService(30)

		messages.On("RecentAll", ctx, 30).Return([]types.TimelineItem{}, nil)

		_, err := service.Public(ctx, 0)
		assert.NoError(t, err)
		messages.AssertExpectations(t)
	})

	t.Run("SmallerLimitKept", func(t *testing.T) {
		service, messages, _, _ := newTestService(30)

		messages.On("RecentAll", ctx, 5).Return([]types.TimelineItem{}, nil)

		_, err := service.Public(ctx, 5)
		assert.NoError(t, err)
		messages.AssertExpectations(t)
	})
}

func TestHomeTimeline(t *testing.T) {
	ctx := context.Background()

	t.Run("ScopeIsViewerPlusFollowees", func(t *testing.T) {
		service, messages, follows, _ := newTestService(30)

		viewer := uuid.New()
		followees := []uuid.UUID{uuid.New(), uuid.New()}
		follows.On("FolloweeIDs", ctx, viewer).Return(followees, nil)

		expectedScope := append([]uuid.UUID{viewer}, followees...)
		messages.On("RecentByAuthors", ctx, expectedScope, 30).Return([]types.TimelineItem{}, nil)

		_, err := service.Home(ctx, viewer, 30)
		assert.NoError(t, err)
		messages.AssertExpectations(t)
	})

	t.Run("NoFolloweesStillIncludesSelf", func(t *testing.T) {
		service, messages, follows, _ := newTestService(30)

		viewer := uuid.New()
		follows.On("FolloweeIDs", ctx, viewer).Return(nil, nil)
		messages.On("RecentByAuthors", ctx, []uuid.UUID{viewer}, 30).Return([]types.TimelineItem{
			{Message: types.Message{ID: 1, AuthorID: viewer, Text: "own post"}, Username: "alice"},
		}, nil)

		tl, err := service.Home(ctx, viewer, 30)
		assert.NoError(t, err)
		assert.Len(t, tl.Messages, 1)
		assert.Equal(t, "own post", tl.Messages[0].Text)
	})
}

func TestUserTimeline(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownUser", func(t *testing.T) {
		service, _, _, users := newTestService(30)

		users.On("GetUserByUsername", ctx, "ghost").Return(nil, api.ErrNotFound)

		_, err := service.User(ctx, "ghost", nil, 30)
		assert.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("AnonymousViewerNotFollowed", func(t *testing.T) {
		service, messages, follows, users := newTestService(30)

		profile := &types.User{ID: uuid.New(), Username: "alice"}
		users.On("GetUserByUsername", ctx, "alice").Return(profile, nil)
		messages.On("RecentByAuthors", ctx, []uuid.UUID{profile.ID}, 30).Return([]types.TimelineItem{}, nil)

		tl, err := service.User(ctx, "alice", nil, 30)
		assert.NoError(t, err)
		assert.False(t, tl.FollowedByViewer)
		follows.AssertNotCalled(t, "IsFollowing", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FollowedByViewer", func(t *testing.T) {
		service, messages, follows, users := newTestService(30)

		viewer := uuid.New()
		profile := &types.User{ID: uuid.New(), Username: "alice"}
		users.On("GetUserByUsername", ctx, "alice").Return(profile, nil)
		follows.On("IsFollowing", ctx, viewer, profile.ID).Return(true, nil)
		messages.On("RecentByAuthors", ctx, []uuid.UUID{profile.ID}, 30).Return([]types.TimelineItem{}, nil)

		tl, err := service.User(ctx, "alice", &viewer, 30)
		assert.NoError(t, err)
		assert.True(t, tl.FollowedByViewer)
	})

	t.Run("ProfileLookupIsCached", func(t *testing.T) {
		service, messages, _, users := newTestService(30)

		profile := &types.User{ID: uuid.New(), Username: "alice"}
		users.On("GetUserByUsername", ctx, "alice").Return(profile, nil).Once()
		messages.On("RecentByAuthors", ctx, []uuid.UUID{profile.ID}, 30).Return([]types.TimelineItem{}, nil)

		_, err := service.User(ctx, "alice", nil, 30)
		assert.NoError(t, err)
		_, err = service.User(ctx, "alice", nil, 30)
		assert.NoError(t, err)

		// The resolver is only hit once; the second read comes from cache.
		users.AssertNumberOfCalls(t, "GetUserByUsername", 1)
	})
}

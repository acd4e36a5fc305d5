package follow

import (
	"context"
	"log/slog"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresFollowRepo_Follow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresFollowRepo(mockPool, slog.Default())
	follower, followee := uuid.New(), uuid.New()

	mockPool.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO followers (who_id, whom_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(follower, followee).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Follow(context.Background(), follower, followee))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresFollowRepo_FollowIsIdempotent(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresFollowRepo(mockPool, slog.Default())
	follower, followee := uuid.New(), uuid.New()

	// Second insert of the same edge affects zero rows and still succeeds.
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO followers")).
		WithArgs(follower, followee).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	assert.NoError(t, repo.Follow(context.Background(), follower, followee))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresFollowRepo_UnfollowMissingEdgeIsNoop(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresFollowRepo(mockPool, slog.Default())
	follower, followee := uuid.New(), uuid.New()

	mockPool.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM followers WHERE who_id = $1 AND whom_id = $2")).
		WithArgs(follower, followee).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Unfollow(context.Background(), follower, followee))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresFollowRepo_IsFollowing(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresFollowRepo(mockPool, slog.Default())
	follower, followee := uuid.New(), uuid.New()

	mockPool.ExpectQuery(regexp.QuoteMeta(
		"SELECT EXISTS (SELECT 1 FROM followers WHERE who_id = $1 AND whom_id = $2)")).
		WithArgs(follower, followee).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	following, err := repo.IsFollowing(context.Background(), follower, followee)
	assert.NoError(t, err)
	assert.True(t, following)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresFollowRepo_FolloweeIDs(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresFollowRepo(mockPool, slog.Default())
	follower := uuid.New()
	a, b := uuid.New(), uuid.New()

	mockPool.ExpectQuery(regexp.QuoteMeta(
		"SELECT whom_id FROM followers WHERE who_id = $1")).
		WithArgs(follower).
		WillReturnRows(pgxmock.NewRows([]string{"whom_id"}).AddRow(a).AddRow(b))

	followees, err := repo.FolloweeIDs(context.Background(), follower)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, followees)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

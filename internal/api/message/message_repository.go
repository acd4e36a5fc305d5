package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hmelgaard/minitwit/app/observability/metrics"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

var _ MessageRepo = (*PostgresMessageRepo)(nil)

// MessageRepo owns posted messages.
//
// Both read queries inner-join with users, so a message whose author cannot
// be resolved is excluded rather than surfaced with an empty username.
// Ordering is pub_date descending with message id descending as the
// tie-break, so equal timestamps sort deterministically.
type MessageRepo interface {
	// Create inserts a message and returns its id. Text validation happens
	// in the service; pub_date is unix seconds.
	Create(ctx context.Context, authorID uuid.UUID, text string, pubDate int64) (int64, error)

	// RecentAll returns the newest messages of all authors, capped at limit.
	RecentAll(ctx context.Context, limit int) ([]types.TimelineItem, error)

	// RecentByAuthors returns the newest messages whose author is in
	// authorIDs, capped at limit.
	RecentByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]types.TimelineItem, error)
}

type PostgresMessageRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresMessageRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresMessageRepo {
	return &PostgresMessageRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const recentAllQuery = `
SELECT m.id, m.author_id, m.text, m.pub_date, u.username, u.email
FROM messages m
JOIN users u ON u.id = m.author_id
ORDER BY m.pub_date DESC, m.id DESC
LIMIT $1`

const recentByAuthorsQuery = `
SELECT m.id, m.author_id, m.text, m.pub_date, u.username, u.email
FROM messages m
JOIN users u ON u.id = m.author_id
WHERE m.author_id = ANY($1)
ORDER BY m.pub_date DESC, m.id DESC
LIMIT $2`

func (r *PostgresMessageRepo) Create(ctx context.Context, authorID uuid.UUID, text string, pubDate int64) (int64, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "Create")
	defer span.End()
	span.SetAttributes(attribute.String("author.id", authorID.String()))

	start := time.Now()
	var id int64
	err := r.pgpool.QueryRow(ctx,
		"INSERT INTO messages (author_id, text, pub_date) VALUES ($1, $2, $3) RETURNING id",
		authorID, text, pubDate).Scan(&id)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

func (r *PostgresMessageRepo) RecentAll(ctx context.Context, limit int) ([]types.TimelineItem, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "RecentAll")
	defer span.End()

	return r.queryItems(ctx, recentAllQuery, limit)
}

func (r *PostgresMessageRepo) RecentByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]types.TimelineItem, error) {
	ctx, span := otel.Tracer("MessageRepo").Start(ctx, "RecentByAuthors")
	defer span.End()
	span.SetAttributes(attribute.Int("scope.size", len(authorIDs)))

	if len(authorIDs) == 0 {
		return nil, nil
	}
	return r.queryItems(ctx, recentByAuthorsQuery, authorIDs, limit)
}

func (r *PostgresMessageRepo) queryItems(ctx context.Context, query string, args ...any) ([]types.TimelineItem, error) {
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, args...)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var items []types.TimelineItem
	for rows.Next() {
		var item types.TimelineItem
		var email string
		if err := rows.Scan(&item.ID, &item.AuthorID, &item.Text, &item.PubDate, &item.Username, &email); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		item.GravatarURL = api.GravatarURL(email, 80)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading message rows: %w", err)
	}
	return items, nil
}

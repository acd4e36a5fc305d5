package message

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

var _ MessageService = (*MessageServiceImpl)(nil)

// MessageService validates and timestamps new posts. The author identity is
// established by the auth middleware before this service is reached.
type MessageService interface {
	// Post stores a new message for authorID. Empty text is a validation
	// error and no row is created.
	Post(ctx context.Context, authorID uuid.UUID, text string) (*types.Message, error)
}

type MessageServiceImpl struct {
	logger *slog.Logger
	repo   MessageRepo
	now    func() time.Time
}

func NewMessageService(repo MessageRepo, logger *slog.Logger) *MessageServiceImpl {
	return &MessageServiceImpl{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

func (s *MessageServiceImpl) Post(ctx context.Context, authorID uuid.UUID, text string) (*types.Message, error) {
	if text == "" {
		return nil, api.NewValidationError("text", "Message text must not be empty")
	}

	pubDate := s.now().Unix()
	id, err := s.repo.Create(ctx, authorID, text, pubDate)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Message posted",
		slog.Int64("message_id", id),
		slog.String("author_id", authorID.String()))

	return &types.Message{
		ID:       id,
		AuthorID: authorID,
		Text:     text,
		PubDate:  pubDate,
	}, nil
}

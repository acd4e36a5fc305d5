package appMiddleware

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

// UserIDKey is the context key under which the authenticated viewer's user
// ID is stored by Authenticate and MaybeAuthenticate.
const UserIDKey contextKey = "userID"

// Claims are the custom claims carried in the access token.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

// GetUserIDFromContext returns the authenticated viewer's ID, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

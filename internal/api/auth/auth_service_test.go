package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/hmelgaard/minitwit/config"
	"github.com/hmelgaard/minitwit/internal/api"
	"github.com/hmelgaard/minitwit/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	args := m.Called(ctx, username, email, passwordHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		SecretKey:       "test-access-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "test-issuer",
	}
	return cfg
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		newID := uuid.New()
		mockRepo.On("GetUserByUsername", ctx, "alice").Return(nil, api.ErrNotFound)
		mockRepo.On("CreateUser", ctx, "alice", "a@x.com", mock.AnythingOfType("string")).Return(newID, nil)

		user, err := service.Register(ctx, types.RegisterRequest{
			Username:  "alice",
			Email:     "a@x.com",
			Password:  "pw",
			Password2: "pw",
		})

		assert.NoError(t, err)
		assert.Equal(t, newID, user.ID)
		assert.Equal(t, "alice", user.Username)
		mockRepo.AssertExpectations(t)

		// The stored credential must be a hash of the password, never the
		// plaintext itself.
		storedHash := mockRepo.Calls[1].Arguments.String(3)
		assert.NotEqual(t, "pw", storedHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("pw")))
	})

	t.Run("ValidationOrder", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		cases := []struct {
			name  string
			req   types.RegisterRequest
			field string
		}{
			{"EmptyUsername", types.RegisterRequest{Email: "bad", Password: "", Password2: "x"}, "username"},
			{"EmptyEmail", types.RegisterRequest{Username: "bob", Password: "pw", Password2: "pw"}, "email"},
			{"EmailWithoutAt", types.RegisterRequest{Username: "bob", Email: "bob.example.com", Password: "pw", Password2: "pw"}, "email"},
			{"EmptyPassword", types.RegisterRequest{Username: "bob", Email: "b@x.com", Password2: "pw"}, "password"},
			{"PasswordMismatch", types.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "pw", Password2: "other"}, "password2"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := service.Register(ctx, tc.req)
				ve, ok := api.AsValidationError(err)
				assert.True(t, ok, "expected a validation error")
				assert.Equal(t, tc.field, ve.Field)
			})
		}

		// Input validation fails before any repository access.
		mockRepo.AssertNotCalled(t, "GetUserByUsername", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		existing := &types.User{ID: uuid.New(), Username: "alice"}
		mockRepo.On("GetUserByUsername", ctx, "alice").Return(existing, nil)

		_, err := service.Register(ctx, types.RegisterRequest{
			Username:  "alice",
			Email:     "other@x.com",
			Password:  "different",
			Password2: "different",
		})

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		hashed, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.DefaultCost)
		user := &types.User{ID: uuid.New(), Username: "alice", PasswordHash: string(hashed)}

		mockRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil)
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

		accessToken, refreshToken, err := service.Login(ctx, "alice", "pw")
		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidUsername", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		mockRepo.On("GetUserByUsername", ctx, "noexist").Return(nil, api.ErrNotFound)

		_, _, err := service.Login(ctx, "noexist", "anything")
		assert.ErrorIs(t, err, api.ErrInvalidUsername)
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		hashed, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
		user := &types.User{ID: uuid.New(), Username: "alice", PasswordHash: string(hashed)}
		mockRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil)

		_, _, err := service.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, api.ErrInvalidPassword)
		mockRepo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockAuthRepo)
	service := NewAuthService(mockRepo, testConfig(), slog.Default())

	mockRepo.On("InvalidateRefreshToken", ctx, "some-token").Return(nil)

	assert.NoError(t, service.Logout(ctx, "some-token"))
	mockRepo.AssertExpectations(t)
}

func TestRefreshSession(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		user := &types.User{ID: uuid.New(), Username: "alice"}
		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, "old-token").Return(user.ID, nil)
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
		mockRepo.On("InvalidateRefreshToken", ctx, "old-token").Return(nil)

		accessToken, refreshToken, err := service.RefreshSession(ctx, "old-token")
		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEqual(t, "old-token", refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), logger)

		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, "bogus").Return(uuid.Nil, api.ErrUnauthenticated)

		_, _, err := service.RefreshSession(ctx, "bogus")
		assert.ErrorIs(t, err, api.ErrUnauthenticated)
	})
}

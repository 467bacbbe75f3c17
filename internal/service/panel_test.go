package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/util"
)

const testSessionSecret = "test-session-secret"

func newPanelService(users *mockUserRepo, sessions *mockSessionRepo, email *recordingEmail) *PanelService {
	return NewPanelService(users, sessions, email, testSessionSecret)
}

func TestPanelService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		users := new(mockUserRepo)
		sessions := new(mockSessionRepo)
		email := new(recordingEmail)
		email.On("SendWelcome", mock.Anything, "new@example.com").Return(nil).Maybe()

		users.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateUserParams) bool {
			return p.Email == "new@example.com" &&
				p.PasswordHash != "correct horse" &&
				util.CheckPasswordHash("correct horse", p.PasswordHash)
		})).Return(&model.User{ID: "u1", Email: "new@example.com"}, nil).Once()

		svc := newPanelService(users, sessions, email)
		user, err := svc.Register(ctx, "  NEW@example.com ", "correct horse")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		users.AssertExpectations(t)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		svc := newPanelService(new(mockUserRepo), new(mockSessionRepo), new(recordingEmail))

		_, err := svc.Register(ctx, "not-an-email", "password123")

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newPanelService(new(mockUserRepo), new(mockSessionRepo), new(recordingEmail))

		_, err := svc.Register(ctx, "ok@example.com", "short")

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("duplicate email maps to already exists", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("Create", mock.Anything, mock.Anything).
			Return(nil, &pq.Error{Code: "23505"}).Once()

		svc := newPanelService(users, new(mockSessionRepo), new(recordingEmail))
		_, err := svc.Register(ctx, "dup@example.com", "password123")

		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetCode(err))
	})
}

func TestPanelService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	activeUser := &model.User{ID: "u1", Email: "user@example.com", PasswordHash: hash}

	t.Run("valid credentials mint a session", func(t *testing.T) {
		users := new(mockUserRepo)
		sessions := new(mockSessionRepo)
		users.On("FindByEmail", mock.Anything, "user@example.com").Return(activeUser, nil).Once()

		var storedHash string
		sessions.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreatePanelSessionParams) bool {
			storedHash = p.TokenHash
			return p.UserID == "u1" && p.ExpiresAt.After(time.Now())
		})).Return(&model.PanelSession{ID: "s1", UserID: "u1"}, nil).Once()

		svc := newPanelService(users, sessions, new(recordingEmail))
		user, token, err := svc.Login(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		require.NotEmpty(t, token)
		assert.NotEqual(t, token, storedHash, "raw token must not be stored")
		assert.Equal(t, util.HmacSHA256(testSessionSecret, token), storedHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByEmail", mock.Anything, "user@example.com").Return(activeUser, nil).Once()

		svc := newPanelService(users, new(mockSessionRepo), new(recordingEmail))
		_, _, err := svc.Login(ctx, "user@example.com", "nope")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("unknown email gets the same error as wrong password", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil).Once()

		svc := newPanelService(users, new(mockSessionRepo), new(recordingEmail))
		_, _, err := svc.Login(ctx, "ghost@example.com", "password123")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("suspended user cannot log in", func(t *testing.T) {
		now := time.Now()
		suspended := &model.User{ID: "u2", Email: "sus@example.com", PasswordHash: hash, SuspendedAt: &now}

		users := new(mockUserRepo)
		users.On("FindByEmail", mock.Anything, "sus@example.com").Return(suspended, nil).Once()

		svc := newPanelService(users, new(mockSessionRepo), new(recordingEmail))
		_, _, err := svc.Login(ctx, "sus@example.com", "password123")

		assert.Equal(t, apperrors.ErrCodeAccountSuspended, apperrors.GetCode(err))
	})
}

func TestPanelService_ValidateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves token to user", func(t *testing.T) {
		users := new(mockUserRepo)
		sessions := new(mockSessionRepo)

		token := "raw-token"
		sessions.On("FindByTokenHash", mock.Anything, util.HmacSHA256(testSessionSecret, token)).
			Return(&model.PanelSession{ID: "s1", UserID: "u1"}, nil).Once()
		users.On("FindByID", mock.Anything, "u1").
			Return(&model.User{ID: "u1"}, nil).Once()

		svc := newPanelService(users, sessions, new(recordingEmail))
		user, err := svc.ValidateSession(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		sessions.On("FindByTokenHash", mock.Anything, mock.Anything).Return(nil, nil).Once()

		svc := newPanelService(new(mockUserRepo), sessions, new(recordingEmail))
		_, err := svc.ValidateSession(ctx, "bogus")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("suspension invalidates existing sessions", func(t *testing.T) {
		now := time.Now()
		users := new(mockUserRepo)
		sessions := new(mockSessionRepo)

		sessions.On("FindByTokenHash", mock.Anything, mock.Anything).
			Return(&model.PanelSession{ID: "s1", UserID: "u2"}, nil).Once()
		users.On("FindByID", mock.Anything, "u2").
			Return(&model.User{ID: "u2", SuspendedAt: &now}, nil).Once()

		svc := newPanelService(users, sessions, new(recordingEmail))
		_, err := svc.ValidateSession(ctx, "token")

		assert.Equal(t, apperrors.ErrCodeAccountSuspended, apperrors.GetCode(err))
	})

	t.Run("empty token", func(t *testing.T) {
		svc := newPanelService(new(mockUserRepo), new(mockSessionRepo), new(recordingEmail))

		_, err := svc.ValidateSession(ctx, "")

		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})
}

func TestPanelService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the matching session", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		sessions.On("FindByTokenHash", mock.Anything, mock.Anything).
			Return(&model.PanelSession{ID: "s1", UserID: "u1"}, nil).Once()
		sessions.On("Delete", mock.Anything, "s1").Return(nil).Once()

		svc := newPanelService(new(mockUserRepo), sessions, new(recordingEmail))
		require.NoError(t, svc.Logout(ctx, "token"))
		sessions.AssertExpectations(t)
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		sessions.On("FindByTokenHash", mock.Anything, mock.Anything).Return(nil, nil).Once()

		svc := newPanelService(new(mockUserRepo), sessions, new(recordingEmail))
		require.NoError(t, svc.Logout(ctx, "gone"))
	})
}

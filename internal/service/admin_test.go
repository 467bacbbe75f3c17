package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/linking"
	"github.com/blastline/panel-server-go/internal/model"
)

func newAdminService(users *mockUserRepo, accounts *mockAccountRepo, sessions *mockSessionRepo, blasts *mockBlastRepo, email *recordingEmail) (*AdminService, *linking.AttemptStore) {
	attempts := linking.NewAttemptStore(time.Minute)
	return NewAdminService(users, accounts, sessions, blasts, attempts, email), attempts
}

func TestAdminService_Suspend(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes sessions and deactivates the link", func(t *testing.T) {
		users := new(mockUserRepo)
		accounts := new(mockAccountRepo)
		sessions := new(mockSessionRepo)
		email := new(recordingEmail)
		email.On("SendSuspensionNotice", mock.Anything, "target@example.com").Return(nil).Maybe()

		now := time.Now()
		users.On("FindByID", mock.Anything, "u2").
			Return(&model.User{ID: "u2", Email: "target@example.com"}, nil).Once()
		users.On("SetSuspended", mock.Anything, "u2", mock.AnythingOfType("*time.Time")).
			Return(&model.User{ID: "u2", Email: "target@example.com", SuspendedAt: &now}, nil).Once()
		sessions.On("DeleteByUserID", mock.Anything, "u2").Return(int64(2), nil).Once()
		accounts.On("SetActive", mock.Anything, "u2", false).Return(nil).Once()

		svc, attempts := newAdminService(users, accounts, sessions, new(mockBlastRepo), email)
		user, err := svc.Suspend(ctx, "admin-1", "u2")

		require.NoError(t, err)
		assert.True(t, user.Suspended())
		assert.Equal(t, 0, attempts.Len())
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
		accounts.AssertExpectations(t)
	})

	t.Run("abandons an in-flight link attempt", func(t *testing.T) {
		users := new(mockUserRepo)
		accounts := new(mockAccountRepo)
		sessions := new(mockSessionRepo)
		email := new(recordingEmail)
		email.On("SendSuspensionNotice", mock.Anything, mock.Anything).Return(nil).Maybe()

		now := time.Now()
		users.On("FindByID", mock.Anything, "u2").Return(&model.User{ID: "u2"}, nil).Once()
		users.On("SetSuspended", mock.Anything, "u2", mock.Anything).
			Return(&model.User{ID: "u2", SuspendedAt: &now}, nil).Once()
		sessions.On("DeleteByUserID", mock.Anything, "u2").Return(int64(0), nil).Once()
		accounts.On("SetActive", mock.Anything, "u2", false).Return(nil).Once()

		svc, attempts := newAdminService(users, accounts, sessions, new(mockBlastRepo), email)

		conn := &stubLinkConn{}
		attempts.Put("u2", &linking.Attempt{Conn: conn})

		_, err := svc.Suspend(ctx, "admin-1", "u2")

		require.NoError(t, err)
		assert.True(t, conn.closed)
		assert.Equal(t, 0, attempts.Len())
	})

	t.Run("cannot suspend yourself", func(t *testing.T) {
		svc, _ := newAdminService(new(mockUserRepo), new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))

		_, err := svc.Suspend(ctx, "admin-1", "admin-1")

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("suspending twice is idempotent", func(t *testing.T) {
		now := time.Now()
		users := new(mockUserRepo)
		users.On("FindByID", mock.Anything, "u2").
			Return(&model.User{ID: "u2", SuspendedAt: &now}, nil).Once()

		svc, _ := newAdminService(users, new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))
		user, err := svc.Suspend(ctx, "admin-1", "u2")

		require.NoError(t, err)
		assert.True(t, user.Suspended())
		users.AssertNotCalled(t, "SetSuspended", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByID", mock.Anything, "ghost").Return(nil, nil).Once()

		svc, _ := newAdminService(users, new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))
		_, err := svc.Suspend(ctx, "admin-1", "ghost")

		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestAdminService_Unsuspend(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the suspension but not the link state", func(t *testing.T) {
		now := time.Now()
		users := new(mockUserRepo)
		accounts := new(mockAccountRepo)

		users.On("FindByID", mock.Anything, "u2").
			Return(&model.User{ID: "u2", SuspendedAt: &now}, nil).Once()
		users.On("SetSuspended", mock.Anything, "u2", (*time.Time)(nil)).
			Return(&model.User{ID: "u2"}, nil).Once()

		svc, _ := newAdminService(users, accounts, new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))
		user, err := svc.Unsuspend(ctx, "admin-1", "u2")

		require.NoError(t, err)
		assert.False(t, user.Suspended())
		accounts.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not suspended is a no-op", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByID", mock.Anything, "u2").Return(&model.User{ID: "u2"}, nil).Once()

		svc, _ := newAdminService(users, new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))
		_, err := svc.Unsuspend(ctx, "admin-1", "u2")

		require.NoError(t, err)
		users.AssertNotCalled(t, "SetSuspended", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminService_SetAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes a user", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("SetAdmin", mock.Anything, "u2", true).
			Return(&model.User{ID: "u2", IsAdmin: true}, nil).Once()

		svc, _ := newAdminService(users, new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))
		user, err := svc.SetAdmin(ctx, "admin-1", "u2", true)

		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("cannot demote yourself", func(t *testing.T) {
		svc, _ := newAdminService(new(mockUserRepo), new(mockAccountRepo), new(mockSessionRepo), new(mockBlastRepo), new(recordingEmail))

		_, err := svc.SetAdmin(ctx, "admin-1", "admin-1", false)

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})
}

func TestAdminService_GetStats(t *testing.T) {
	users := new(mockUserRepo)
	accounts := new(mockAccountRepo)
	blasts := new(mockBlastRepo)

	users.On("Count", mock.Anything).Return(10, nil).Once()
	users.On("CountSuspended", mock.Anything).Return(2, nil).Once()
	accounts.On("CountActive", mock.Anything).Return(6, nil).Once()
	blasts.On("Count", mock.Anything).Return(33, nil).Once()

	svc, attempts := newAdminService(users, accounts, new(mockSessionRepo), blasts, new(recordingEmail))
	attempts.Put("u1", &linking.Attempt{Conn: &stubLinkConn{}})

	stats, err := svc.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalUsers:     10,
		SuspendedUsers: 2,
		LinkedAccounts: 6,
		TotalBlasts:    33,
		PendingLinks:   1,
	}, stats)
}

// stubLinkConn satisfies the provider connection for store assertions.
type stubLinkConn struct {
	closed bool
}

func (c *stubLinkConn) Authorized(ctx context.Context) (bool, error) { return false, nil }
func (c *stubLinkConn) SendCode(ctx context.Context, phone string) (string, error) {
	return "", nil
}
func (c *stubLinkConn) SignIn(ctx context.Context, phone, code, codeHash string) error { return nil }
func (c *stubLinkConn) SignInWithPassword(ctx context.Context, password string) error  { return nil }
func (c *stubLinkConn) SessionBlob(ctx context.Context) (string, error)                { return "", nil }
func (c *stubLinkConn) Close() error {
	c.closed = true
	return nil
}

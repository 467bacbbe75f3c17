package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByBotChatID(ctx context.Context, chatID int64) (*model.User, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]model.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) SetSuspended(ctx context.Context, id string, suspendedAt *time.Time) (*model.User, error) {
	args := m.Called(ctx, id, suspendedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) (*model.User, error) {
	args := m.Called(ctx, id, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) BindBotChat(ctx context.Context, id string, chatID int64) error {
	args := m.Called(ctx, id, chatID)
	return args.Error(0)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) CountSuspended(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreatePanelSessionParams) (*model.PanelSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PanelSession), args.Error(1)
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.PanelSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PanelSession), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByUserID(ctx context.Context, userID string) (*model.TelegramAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TelegramAccount), args.Error(1)
}

func (m *mockAccountRepo) Upsert(ctx context.Context, params model.UpsertTelegramAccountParams) (*model.TelegramAccount, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TelegramAccount), args.Error(1)
}

func (m *mockAccountRepo) SetActive(ctx context.Context, userID string, active bool) error {
	args := m.Called(ctx, userID, active)
	return args.Error(0)
}

func (m *mockAccountRepo) UpdateTargetGroups(ctx context.Context, userID string, targetGroups string) (*model.TelegramAccount, error) {
	args := m.Called(ctx, userID, targetGroups)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TelegramAccount), args.Error(1)
}

func (m *mockAccountRepo) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.TelegramAccountRepository {
	return m
}

type mockBlastRepo struct {
	mock.Mock
}

func (m *mockBlastRepo) FindByID(ctx context.Context, id string) (*model.Blast, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Blast), args.Error(1)
}

func (m *mockBlastRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Blast, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Blast), args.Error(1)
}

func (m *mockBlastRepo) Create(ctx context.Context, params model.CreateBlastParams) (*model.Blast, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Blast), args.Error(1)
}

func (m *mockBlastRepo) Update(ctx context.Context, id string, params model.UpdateBlastParams) (*model.Blast, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Blast), args.Error(1)
}

func (m *mockBlastRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBlastRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockBlastRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBlastRepo) WithTx(tx *sqlx.Tx) repository.BlastRepository {
	return m
}

type mockBotLinkRepo struct {
	mock.Mock
}

func (m *mockBotLinkRepo) Create(ctx context.Context, params model.CreateBotLinkTokenParams) (*model.BotLinkToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BotLinkToken), args.Error(1)
}

func (m *mockBotLinkRepo) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*model.BotLinkToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BotLinkToken), args.Error(1)
}

func (m *mockBotLinkRepo) MarkUsed(ctx context.Context, id string, chatID int64) error {
	args := m.Called(ctx, id, chatID)
	return args.Error(0)
}

func (m *mockBotLinkRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBotLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// recordingEmail captures outbound mail for assertions.
type recordingEmail struct {
	mock.Mock
}

func (m *recordingEmail) SendWelcome(ctx context.Context, to string) error {
	args := m.Called(ctx, to)
	return args.Error(0)
}

func (m *recordingEmail) SendSuspensionNotice(ctx context.Context, to string) error {
	args := m.Called(ctx, to)
	return args.Error(0)
}

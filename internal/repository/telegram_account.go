package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blastline/panel-server-go/internal/model"
)

type TelegramAccountRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.TelegramAccount, error)
	// Upsert creates the record on first link and overwrites
	// phone/credential in place on re-link, setting active=true.
	// Target groups are preserved across re-links.
	Upsert(ctx context.Context, params model.UpsertTelegramAccountParams) (*model.TelegramAccount, error)
	SetActive(ctx context.Context, userID string, active bool) error
	UpdateTargetGroups(ctx context.Context, userID string, targetGroups string) (*model.TelegramAccount, error)
	CountActive(ctx context.Context) (int, error)
	WithTx(tx *sqlx.Tx) TelegramAccountRepository
}

type telegramAccountRepo struct {
	db sqlxDB
}

func NewTelegramAccountRepository(db *sqlx.DB) TelegramAccountRepository {
	return &telegramAccountRepo{db: db}
}

func (r *telegramAccountRepo) WithTx(tx *sqlx.Tx) TelegramAccountRepository {
	return &telegramAccountRepo{db: tx}
}

func (r *telegramAccountRepo) FindByUserID(ctx context.Context, userID string) (*model.TelegramAccount, error) {
	var account model.TelegramAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM telegram_accounts WHERE user_id = $1
	`, userID)
	return HandleNotFound(&account, err)
}

func (r *telegramAccountRepo) Upsert(ctx context.Context, params model.UpsertTelegramAccountParams) (*model.TelegramAccount, error) {
	var account model.TelegramAccount
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO telegram_accounts (user_id, phone, session_blob, active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			session_blob = EXCLUDED.session_blob,
			active = true,
			updated_at = $4
		RETURNING *
	`, params.UserID, params.Phone, params.SessionBlob, time.Now())
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *telegramAccountRepo) SetActive(ctx context.Context, userID string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE telegram_accounts SET
			active = $2,
			updated_at = $3
		WHERE user_id = $1
	`, userID, active, time.Now())
	return err
}

func (r *telegramAccountRepo) UpdateTargetGroups(ctx context.Context, userID string, targetGroups string) (*model.TelegramAccount, error) {
	var account model.TelegramAccount
	err := r.db.GetContext(ctx, &account, `
		UPDATE telegram_accounts SET
			target_groups = $2,
			updated_at = $3
		WHERE user_id = $1
		RETURNING *
	`, userID, targetGroups, time.Now())
	return HandleNotFound(&account, err)
}

func (r *telegramAccountRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM telegram_accounts WHERE active`)
	return count, err
}

package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blastline/panel-server-go/internal/model"
)

type BotLinkTokenRepository interface {
	Create(ctx context.Context, params model.CreateBotLinkTokenParams) (*model.BotLinkToken, error)
	// FindActiveByTokenHash returns the token only if it is unused and unexpired.
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*model.BotLinkToken, error)
	// MarkUsed invalidates the token and records the chat it was redeemed from.
	MarkUsed(ctx context.Context, id string, chatID int64) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type botLinkTokenRepo struct {
	db sqlxDB
}

func NewBotLinkTokenRepository(db *sqlx.DB) BotLinkTokenRepository {
	return &botLinkTokenRepo{db: db}
}

func (r *botLinkTokenRepo) Create(ctx context.Context, params model.CreateBotLinkTokenParams) (*model.BotLinkToken, error) {
	var token model.BotLinkToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO bot_link_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.TokenHash, params.UserID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *botLinkTokenRepo) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*model.BotLinkToken, error) {
	var token model.BotLinkToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM bot_link_tokens
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *botLinkTokenRepo) MarkUsed(ctx context.Context, id string, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bot_link_tokens SET
			used_at = $2,
			chat_id = $3
		WHERE id = $1 AND used_at IS NULL
	`, id, time.Now(), chatID)
	return err
}

func (r *botLinkTokenRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bot_link_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *botLinkTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM bot_link_tokens
		WHERE expires_at < NOW() OR used_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

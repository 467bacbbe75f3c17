package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/blastline/panel-server-go/internal/model"
)

type PanelSessionRepository interface {
	Create(ctx context.Context, params model.CreatePanelSessionParams) (*model.PanelSession, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.PanelSession, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type panelSessionRepo struct {
	db sqlxDB
}

func NewPanelSessionRepository(db *sqlx.DB) PanelSessionRepository {
	return &panelSessionRepo{db: db}
}

func (r *panelSessionRepo) Create(ctx context.Context, params model.CreatePanelSessionParams) (*model.PanelSession, error) {
	var session model.PanelSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO panel_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.TokenHash, params.UserID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *panelSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.PanelSession, error) {
	var session model.PanelSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM panel_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *panelSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM panel_sessions WHERE id = $1`, id)
	return err
}

func (r *panelSessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM panel_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *panelSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM panel_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

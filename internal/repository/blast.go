package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blastline/panel-server-go/internal/model"
)

type BlastRepository interface {
	FindByID(ctx context.Context, id string) (*model.Blast, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Blast, error)
	Create(ctx context.Context, params model.CreateBlastParams) (*model.Blast, error)
	Update(ctx context.Context, id string, params model.UpdateBlastParams) (*model.Blast, error)
	Delete(ctx context.Context, id string) error
	CountByUserID(ctx context.Context, userID string) (int, error)
	Count(ctx context.Context) (int, error)
	WithTx(tx *sqlx.Tx) BlastRepository
}

type blastRepo struct {
	db sqlxDB
}

func NewBlastRepository(db *sqlx.DB) BlastRepository {
	return &blastRepo{db: db}
}

func (r *blastRepo) WithTx(tx *sqlx.Tx) BlastRepository {
	return &blastRepo{db: tx}
}

func (r *blastRepo) FindByID(ctx context.Context, id string) (*model.Blast, error) {
	var blast model.Blast
	err := r.db.GetContext(ctx, &blast, `
		SELECT * FROM blasts WHERE id = $1
	`, id)
	return HandleNotFound(&blast, err)
}

func (r *blastRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Blast, error) {
	var blasts []model.Blast
	err := r.db.SelectContext(ctx, &blasts, `
		SELECT * FROM blasts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return blasts, nil
}

func (r *blastRepo) Create(ctx context.Context, params model.CreateBlastParams) (*model.Blast, error) {
	var blast model.Blast
	err := r.db.GetContext(ctx, &blast, `
		INSERT INTO blasts (user_id, title, message, target_groups, scheduled_at, interval_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.UserID, params.Title, params.Message, params.TargetGroups,
		params.ScheduledAt, params.IntervalMins, params.Status)
	if err != nil {
		return nil, err
	}
	return &blast, nil
}

func (r *blastRepo) Update(ctx context.Context, id string, params model.UpdateBlastParams) (*model.Blast, error) {
	var blast model.Blast
	err := r.db.GetContext(ctx, &blast, `
		UPDATE blasts SET
			title = COALESCE($2, title),
			message = COALESCE($3, message),
			target_groups = COALESCE($4, target_groups),
			scheduled_at = COALESCE($5, scheduled_at),
			interval_minutes = COALESCE($6, interval_minutes),
			status = COALESCE($7, status),
			updated_at = $8
		WHERE id = $1
		RETURNING *
	`, id, params.Title, params.Message, params.TargetGroups,
		params.ScheduledAt, params.IntervalMins, params.Status, time.Now())
	return HandleNotFound(&blast, err)
}

func (r *blastRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blasts WHERE id = $1`, id)
	return err
}

func (r *blastRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blasts WHERE user_id = $1`, userID)
	return count, err
}

func (r *blastRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blasts`)
	return count, err
}

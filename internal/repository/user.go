package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blastline/panel-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByBotChatID(ctx context.Context, chatID int64) (*model.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	SetSuspended(ctx context.Context, id string, suspendedAt *time.Time) (*model.User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (*model.User, error)
	BindBotChat(ctx context.Context, id string, chatID int64) error
	Count(ctx context.Context) (int, error)
	CountSuspended(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE lower(email) = lower($1)
	`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByBotChatID(ctx context.Context, chatID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE bot_chat_id = $1
	`, chatID)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindAll(ctx context.Context, limit, offset int) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (email, password_hash, is_admin)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.Email, params.PasswordHash, params.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) SetSuspended(ctx context.Context, id string, suspendedAt *time.Time) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			suspended_at = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, suspendedAt, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			is_admin = $2,
			updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, isAdmin, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) BindBotChat(ctx context.Context, id string, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			bot_chat_id = $2,
			updated_at = $3
		WHERE id = $1
	`, id, chatID, time.Now())
	return err
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (r *userRepo) CountSuspended(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE suspended_at IS NOT NULL`)
	return count, err
}

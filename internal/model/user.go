package model

import (
	"time"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	SuspendedAt  *time.Time `db:"suspended_at" json:"suspendedAt,omitempty"`
	BotChatID    *int64     `db:"bot_chat_id" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) Suspended() bool {
	return u.SuspendedAt != nil
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	IsAdmin      bool
}

package model

import (
	"time"
)

type PanelSession struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	UserID    string    `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreatePanelSessionParams struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

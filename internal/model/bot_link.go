package model

import (
	"time"
)

// BotLinkToken is a single-use deep-link token: the panel issues it, the
// user opens t.me/<bot>?start=<token>, and the bot redeems it to bind a
// chat identifier to the issuing user.
type BotLinkToken struct {
	ID        string     `db:"id" json:"id"`
	TokenHash string     `db:"token_hash" json:"-"`
	UserID    string     `db:"user_id" json:"userId"`
	ChatID    *int64     `db:"chat_id" json:"chatId,omitempty"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateBotLinkTokenParams struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

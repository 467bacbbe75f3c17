package model

import (
	"strings"
	"time"
)

// TelegramAccount is the durable result of a successful linking flow,
// owned 1:1 by a User. SessionBlob is the provider-issued session
// credential, encrypted at rest when an encryption key is configured.
// It is never logged and never serialized to clients.
type TelegramAccount struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	Phone        string    `db:"phone" json:"phone"`
	SessionBlob  string    `db:"session_blob" json:"-"`
	Active       bool      `db:"active" json:"active"`
	TargetGroups string    `db:"target_groups" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Groups returns the ordered broadcast target identifiers.
func (a *TelegramAccount) Groups() []string {
	if a.TargetGroups == "" {
		return nil
	}
	return strings.Split(a.TargetGroups, ",")
}

// EncodeGroups serializes an ordered target list for storage.
func EncodeGroups(groups []string) string {
	return strings.Join(groups, ",")
}

// UpsertTelegramAccountParams carries the fields overwritten on re-link.
// Target groups are deliberately absent: a re-link preserves them.
type UpsertTelegramAccountParams struct {
	UserID      string
	Phone       string
	SessionBlob string
}

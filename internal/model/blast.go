package model

import (
	"strings"
	"time"
)

type Blast struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"userId"`
	Title        string      `db:"title" json:"title"`
	Message      string      `db:"message" json:"message"`
	TargetGroups string      `db:"target_groups" json:"targetGroups"`
	ScheduledAt  *time.Time  `db:"scheduled_at" json:"scheduledAt,omitempty"`
	IntervalMins int         `db:"interval_minutes" json:"intervalMinutes"`
	Status       BlastStatus `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// Groups returns the blast's own target list; empty means the account
// defaults apply at dispatch time.
func (b *Blast) Groups() []string {
	if b.TargetGroups == "" {
		return nil
	}
	return strings.Split(b.TargetGroups, ",")
}

type CreateBlastParams struct {
	UserID       string
	Title        string
	Message      string
	TargetGroups string
	ScheduledAt  *time.Time
	IntervalMins int
	Status       BlastStatus
}

type UpdateBlastParams struct {
	Title        *string
	Message      *string
	TargetGroups *string
	ScheduledAt  *time.Time
	IntervalMins *int
	Status       *BlastStatus
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ClassCategoryFree    = "gratis"
	ClassCategoryPremium = "premium"
)

// ScheduledClass rows are created by an admin command, read by the hourly
// sweep and deleted once scheduled_at is in the past. Never updated.
type ScheduledClass struct {
	bun.BaseModel `bun:"table:classes"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Category    string    `bun:"category,notnull" json:"category"`
	ScheduledAt time.Time `bun:"scheduled_at,notnull" json:"scheduled_at"`
}

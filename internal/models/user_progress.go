package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserProgress is one row per community member who has ever posted.
// level is persisted redundantly (level = xp/150 + 1) so role
// reconciliation can detect changes without recomputing history.
// last_gain holds the delta of the most recent write; the writer reads
// it back to recover the level it started from.
type UserProgress struct {
	bun.BaseModel `bun:"table:user_progress"`

	UserID             string     `bun:"user_id,pk" json:"user_id"`
	XP                 int        `bun:"xp,notnull,default:0" json:"xp"`
	Level              int        `bun:"level,notnull,default:1" json:"level"`
	WeeklyXP           int        `bun:"weekly_xp,notnull,default:0" json:"weekly_xp"`
	LastGain           int        `bun:"last_gain,notnull,default:0" json:"-"`
	LastMessageAt      time.Time  `bun:"last_message_timestamp,notnull,default:current_timestamp" json:"last_message_timestamp"`
	LastRutinaDate     *time.Time `bun:"last_rutina_date,type:date" json:"-"`
	LastAttachmentDate *time.Time `bun:"last_attachment_date,type:date" json:"-"`
	AttachmentsToday   int        `bun:"attachments_today,notnull,default:0" json:"-"`
}

// XPApplied is the scan target of the atomic XP upsert. PriorLevel is
// derived from the updated row itself (xp minus the gain the statement
// applied), so a level-up is detected from the same round trip and is
// reported by exactly one of any set of concurrent gains.
type XPApplied struct {
	PriorLevel        int  `bun:"prior_level"`
	XP                int  `bun:"xp"`
	Level             int  `bun:"level"`
	WeeklyXP          int  `bun:"weekly_xp"`
	AttachmentsToday  int  `bun:"attachments_today"`
	RutinaClaimed     bool `bun:"rutina_claimed"`
	AttachmentClaimed bool `bun:"attachment_claimed"`
}

// RankingEntry is one weekly leaderboard line.
type RankingEntry struct {
	UserID   string `bun:"user_id" json:"user_id"`
	WeeklyXP int    `bun:"weekly_xp" json:"weekly_xp"`
}

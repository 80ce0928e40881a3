package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"calistenia/internal/models"
	"calistenia/internal/pkg"
	"calistenia/internal/progression"

	"github.com/uptrace/bun"
)

func CreateTableUserProgress(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserProgress)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserProgress)(nil)).Index("index_user_progress_weekly_xp").IfNotExists().Column("weekly_xp").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserProgress)(nil)).Index("index_user_progress_last_message").IfNotExists().Column("last_message_timestamp").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// gainExpr is the XP delta of one message, evaluated against the stored
// row inside the upsert so two interleaved messages can never lose an
// update. Mirrors progression.ComputeGain exactly.
func gainExpr(hasMarker, hasAttachment bool, dateLit string) string {
	return fmt.Sprintf(
		`(%d
			+ CASE WHEN %t AND u.last_rutina_date IS DISTINCT FROM %s THEN %d ELSE 0 END
			+ CASE WHEN %t AND (u.last_attachment_date IS DISTINCT FROM %s OR u.attachments_today < %d) THEN %d ELSE 0 END)`,
		progression.XPPerMessage,
		hasMarker, dateLit, progression.XPRutina,
		hasAttachment, dateLit, progression.MaxAttachmentBonuses, progression.XPAttachment,
	)
}

// ApplyMessageXP applies one message's XP gain, daily-bonus consumption,
// level recompute and activity refresh as a single statement. The update
// also records the gain it applied (last_gain), so the prior level is
// derived from the same locked row (xp - last_gain) and two concurrent
// messages crossing a level boundary report exactly one level-up. The
// prior CTE snapshot only feeds the informational claimed flags, which
// may be stale under that race.
func ApplyMessageXP(ctx context.Context, db *bun.DB, userID string, event progression.MessageEvent, now time.Time) (*models.XPApplied, error) {
	hasMarker := progression.HasRutinaMarker(event.Content)
	hasAttachment := event.Attachments > 0
	today := pkg.DateKey(now)
	dateLit := fmt.Sprintf("'%s'::date", today)
	gain := gainExpr(hasMarker, hasAttachment, dateLit)

	initialGain, initialFlags := progression.ComputeGain(event, progression.DailyState{}, today)
	initialRutinaDate := "NULL"
	if initialFlags.RutinaClaimed {
		initialRutinaDate = dateLit
	}
	initialAttachmentDate := "NULL"
	initialAttachments := 0
	if initialFlags.AttachmentClaimed {
		initialAttachmentDate = dateLit
		initialAttachments = 1
	}

	query := fmt.Sprintf(`
		WITH prior AS (
			SELECT last_rutina_date, last_attachment_date, attachments_today
			FROM user_progress WHERE user_id = ?
		), up AS (
			INSERT INTO user_progress AS u
				(user_id, xp, level, weekly_xp, last_gain, last_message_timestamp, last_rutina_date, last_attachment_date, attachments_today)
			VALUES (?, %[1]d, %[1]d / %[2]d + 1, %[1]d, %[1]d, ?, %[3]s, %[4]s, %[5]d)
			ON CONFLICT (user_id) DO UPDATE SET
				xp = u.xp + %[6]s,
				weekly_xp = u.weekly_xp + %[6]s,
				level = (u.xp + %[6]s) / %[2]d + 1,
				last_gain = %[6]s,
				last_message_timestamp = ?,
				last_rutina_date = CASE
					WHEN %[7]t AND u.last_rutina_date IS DISTINCT FROM %[9]s THEN %[9]s
					ELSE u.last_rutina_date END,
				last_attachment_date = CASE
					WHEN %[8]t AND (u.last_attachment_date IS DISTINCT FROM %[9]s OR u.attachments_today < %[10]d) THEN %[9]s
					ELSE u.last_attachment_date END,
				attachments_today = CASE
					WHEN %[8]t AND u.last_attachment_date IS DISTINCT FROM %[9]s THEN 1
					WHEN %[8]t AND u.attachments_today < %[10]d THEN u.attachments_today + 1
					ELSE u.attachments_today END
			RETURNING xp, level, weekly_xp, last_gain, attachments_today
		)
		SELECT
			(up.xp - up.last_gain) / %[2]d + 1 AS prior_level,
			up.xp, up.level, up.weekly_xp, up.attachments_today,
			(%[7]t AND (p.last_rutina_date IS NULL OR p.last_rutina_date IS DISTINCT FROM %[9]s)) AS rutina_claimed,
			(%[8]t AND (p.attachments_today IS NULL OR p.last_attachment_date IS DISTINCT FROM %[9]s OR p.attachments_today < %[10]d)) AS attachment_claimed
		FROM up LEFT JOIN prior p ON TRUE`,
		initialGain, progression.XPPerLevel, initialRutinaDate, initialAttachmentDate, initialAttachments,
		gain, hasMarker, hasAttachment, dateLit, progression.MaxAttachmentBonuses,
	)

	var applied models.XPApplied
	err := db.NewRaw(query, userID, userID, now, now).Scan(ctx, &applied)
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// GrantXP adds an administrative XP grant. Additive only; the same atomic
// shape as ApplyMessageXP minus the daily-bonus gating.
func GrantXP(ctx context.Context, db *bun.DB, userID string, amount int, now time.Time) (*models.XPApplied, error) {
	query := fmt.Sprintf(`
		WITH up AS (
			INSERT INTO user_progress AS u (user_id, xp, level, weekly_xp, last_gain, last_message_timestamp)
			VALUES (?, %[1]d, %[1]d / %[2]d + 1, %[1]d, %[1]d, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				xp = u.xp + %[1]d,
				weekly_xp = u.weekly_xp + %[1]d,
				level = (u.xp + %[1]d) / %[2]d + 1,
				last_gain = %[1]d
			RETURNING xp, level, weekly_xp, attachments_today
		)
		SELECT (up.xp - %[1]d) / %[2]d + 1 AS prior_level, up.xp, up.level, up.weekly_xp, up.attachments_today
		FROM up`,
		amount, progression.XPPerLevel,
	)

	var applied models.XPApplied
	err := db.NewRaw(query, userID, now).Scan(ctx, &applied)
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

func FindUserProgress(ctx context.Context, db *bun.DB, userID string) (*models.UserProgress, error) {
	var user models.UserProgress
	err := db.NewSelect().Model(&user).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CountUsers(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*models.UserProgress)(nil)).Count(ctx)
}

// GetInactiveUsers returns users whose last qualifying activity is older
// than the cutoff.
func GetInactiveUsers(ctx context.Context, db *bun.DB, cutoff time.Time) ([]*models.UserProgress, error) {
	var users []*models.UserProgress
	err := db.NewSelect().Model(&users).Where("last_message_timestamp < ?", cutoff).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// TouchActivity refreshes the activity timestamp after a re-engagement
// notification so the user is not re-notified on the next sweep.
func TouchActivity(ctx context.Context, db *bun.DB, userID string, now time.Time) error {
	_, err := db.NewUpdate().
		Model((*models.UserProgress)(nil)).
		Set("last_message_timestamp = ?", now).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

// GetWeeklyTop returns the weekly leaderboard, ties broken by user_id for
// a stable order. Only users with weekly activity are eligible.
func GetWeeklyTop(ctx context.Context, db *bun.DB, limit int) ([]*models.RankingEntry, error) {
	var entries []*models.RankingEntry
	err := db.NewSelect().
		Model((*models.UserProgress)(nil)).
		Column("user_id", "weekly_xp").
		Where("weekly_xp > 0").
		Order("weekly_xp DESC").
		Order("user_id ASC").
		Limit(limit).
		Scan(ctx, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ResetWeeklyXP zeroes every weekly counter in one statement. Total xp is
// untouched. Must run as the last step of the ranking cycle.
func ResetWeeklyXP(ctx context.Context, db *bun.DB) error {
	_, err := db.NewUpdate().
		Model((*models.UserProgress)(nil)).
		Set("weekly_xp = 0").
		Where("weekly_xp <> 0").
		Exec(ctx)
	return err
}

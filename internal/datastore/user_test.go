package datastore

import (
	"context"
	"sync"
	"testing"
	"time"

	"calistenia/internal/models"
	"calistenia/internal/progression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantXPConcurrentNoLostUpdates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testID(t)

	const workers = 25
	const amount = 7

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := GrantXP(ctx, db, userID, amount, time.Now().UTC())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	progress, err := FindUserProgress(ctx, db, userID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, workers*amount, progress.XP)
	assert.Equal(t, workers*amount, progress.WeeklyXP)
	assert.Equal(t, progression.LevelForXP(workers*amount), progress.Level)
}

// The SQL upsert must claim the daily bonuses exactly like the pure
// rules: rutina once per UTC day, attachments capped at four, both
// reset on the next day.
func TestApplyMessageXPDailyBonuses(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testID(t)
	day1 := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)

	applied, err := ApplyMessageXP(ctx, db, userID, progression.MessageEvent{Content: "rutina hecha! 💪"}, day1)
	require.NoError(t, err)
	assert.Equal(t, progression.XPPerMessage+progression.XPRutina, applied.XP)
	assert.True(t, applied.RutinaClaimed)

	applied, err = ApplyMessageXP(ctx, db, userID, progression.MessageEvent{Content: "RUTINA HECHA! otra vez"}, day1)
	require.NoError(t, err)
	assert.Equal(t, 25, applied.XP, "second marker the same day earns base only")
	assert.False(t, applied.RutinaClaimed)

	for i := 0; i < 6; i++ {
		applied, err = ApplyMessageXP(ctx, db, userID, progression.MessageEvent{Content: "foto", Attachments: 1}, day1)
		require.NoError(t, err)
		if i < 4 {
			assert.True(t, applied.AttachmentClaimed, "message %d", i+1)
			assert.Equal(t, i+1, applied.AttachmentsToday)
		} else {
			assert.False(t, applied.AttachmentClaimed, "message %d", i+1)
			assert.Equal(t, 4, applied.AttachmentsToday)
		}
	}
	// 20 + 5 + 4×25 + 2×5
	assert.Equal(t, 135, applied.XP)

	day2 := day1.Add(24 * time.Hour)
	applied, err = ApplyMessageXP(ctx, db, userID, progression.MessageEvent{Content: "foto", Attachments: 1}, day2)
	require.NoError(t, err)
	assert.True(t, applied.AttachmentClaimed, "new day resets the attachment counter")
	assert.Equal(t, 1, applied.AttachmentsToday)
	assert.Equal(t, 160, applied.XP)

	newLevel, ok := progression.DetectLevelUp(applied.PriorLevel, applied.XP)
	require.True(t, ok, "the 135→160 message crosses the level boundary")
	assert.Equal(t, 2, newLevel)
	assert.Equal(t, 2, applied.Level)
}

func TestApplyMessageXPConcurrentLevelUpOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testID(t)

	_, err := GrantXP(ctx, db, userID, 140, time.Now().UTC())
	require.NoError(t, err)

	const workers = 4
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := ApplyMessageXP(ctx, db, userID, progression.MessageEvent{Content: "a entrenar"}, time.Now().UTC())
			if err != nil {
				t.Error(err)
				return
			}
			if _, ok := progression.DetectLevelUp(applied.PriorLevel, applied.XP); ok {
				results <- applied.Level
			}
		}()
	}
	wg.Wait()
	close(results)

	var levelUps []int
	for level := range results {
		levelUps = append(levelUps, level)
	}
	require.Len(t, levelUps, 1, "exactly one concurrent message reports the level-up")
	assert.Equal(t, 2, levelUps[0])

	progress, err := FindUserProgress(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, 140+workers*progression.XPPerMessage, progress.XP)
}

func TestResetWeeklyXPKeepsTotals(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testID(t)

	_, err := GrantXP(ctx, db, userID, 320, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, ResetWeeklyXP(ctx, db))

	progress, err := FindUserProgress(ctx, db, userID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 0, progress.WeeklyXP)
	assert.Equal(t, 320, progress.XP)
	assert.Equal(t, progression.LevelForXP(320), progress.Level)
}

func TestGetWeeklyTopOrderAndTies(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := testID(t)
	userA, userB, userC, userD := base+"-a", base+"-b", base+"-c", base+"-d"
	now := time.Now().UTC()

	// userD has lifetime XP but a zeroed week, so the top must skip them
	_, err := GrantXP(ctx, db, userD, 10, now)
	require.NoError(t, err)
	// also zeroes residue from earlier tests, making the top deterministic
	require.NoError(t, ResetWeeklyXP(ctx, db))

	_, err = GrantXP(ctx, db, userB, 50, now)
	require.NoError(t, err)
	_, err = GrantXP(ctx, db, userA, 50, now)
	require.NoError(t, err)
	_, err = GrantXP(ctx, db, userC, 30, now)
	require.NoError(t, err)

	top, err := GetWeeklyTop(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, userA, top[0].UserID, "ties break on user_id")
	assert.Equal(t, userB, top[1].UserID)
	assert.Equal(t, userC, top[2].UserID)
	assert.Equal(t, 50, top[0].WeeklyXP)
	assert.Equal(t, 30, top[2].WeeklyXP)
}

func TestInactivityScanAndTouch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testID(t)
	now := time.Now().UTC()

	_, err := GrantXP(ctx, db, userID, 5, now.Add(-8*24*time.Hour))
	require.NoError(t, err)

	cutoff := now.Add(-7 * 24 * time.Hour)
	inactive, err := GetInactiveUsers(ctx, db, cutoff)
	require.NoError(t, err)
	require.True(t, containsUser(inactive, userID), "eight days silent is past the cutoff")

	require.NoError(t, TouchActivity(ctx, db, userID, now))

	inactive, err = GetInactiveUsers(ctx, db, cutoff)
	require.NoError(t, err)
	assert.False(t, containsUser(inactive, userID), "touched user leaves the sweep")
}

func containsUser(users []*models.UserProgress, id string) bool {
	for _, u := range users {
		if u.UserID == id {
			return true
		}
	}
	return false
}

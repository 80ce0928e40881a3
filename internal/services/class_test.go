package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminderTagWindows(t *testing.T) {
	cases := []struct {
		until time.Duration
		tag   string
		due   bool
	}{
		{49 * time.Hour, "", false},
		{48 * time.Hour, "2 días", true},
		{47*time.Hour + time.Minute, "2 días", true},
		{47 * time.Hour, "", false},
		{30 * time.Hour, "", false},
		{24 * time.Hour, "MAÑANA", true},
		{23*time.Hour + 30*time.Minute, "MAÑANA", true},
		{23 * time.Hour, "", false},
		{time.Hour, "", false},
		{-time.Hour, "", false},
	}
	for _, tc := range cases {
		tag, due := ReminderTag(tc.until)
		assert.Equal(t, tc.due, due, "until=%s", tc.until)
		assert.Equal(t, tc.tag, tag, "until=%s", tc.until)
	}
}

func TestReminderTagFiresOncePerHourlySweep(t *testing.T) {
	classAt := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	fired := map[string]int{}
	for sweep := classAt.Add(-72 * time.Hour); sweep.Before(classAt); sweep = sweep.Add(time.Hour) {
		if tag, due := ReminderTag(classAt.Sub(sweep)); due {
			fired[tag]++
		}
	}
	assert.Equal(t, map[string]int{"2 días": 1, "MAÑANA": 1}, fired)
}

func TestReminderChannelByCategory(t *testing.T) {
	assert.Equal(t, ChannelFreeClasses, reminderChannel("gratis"))
	assert.Equal(t, ChannelPaidClasses, reminderChannel("premium"))
}

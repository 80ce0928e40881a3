package progression

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{149, 1},
		{150, 2},
		{299, 2},
		{300, 3},
		{-10, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, LevelForXP(c.xp), "xp=%d", c.xp)
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 1; xp <= 3000; xp++ {
		level := LevelForXP(xp)
		require.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestComputeGainBaseOnly(t *testing.T) {
	gain, flags := ComputeGain(MessageEvent{Content: "hola a todos"}, DailyState{}, "2025-03-10")
	assert.Equal(t, XPPerMessage, gain)
	assert.False(t, flags.RutinaClaimed)
	assert.False(t, flags.AttachmentClaimed)
}

func TestComputeGainRutinaOncePerDay(t *testing.T) {
	today := "2025-03-10"
	state := DailyState{}

	gain, flags := ComputeGain(MessageEvent{Content: "rutina hecha! 💪"}, state, today)
	assert.Equal(t, XPPerMessage+XPRutina, gain)
	assert.True(t, flags.RutinaClaimed)
	state = state.Advance(flags, today)

	// second claim the same day earns base only
	gain, flags = ComputeGain(MessageEvent{Content: "RUTINA HECHA! otra vez"}, state, today)
	assert.Equal(t, XPPerMessage, gain)
	assert.False(t, flags.RutinaClaimed)

	// next day earns the bonus again
	gain, flags = ComputeGain(MessageEvent{Content: "Rutina Hecha!"}, state, "2025-03-11")
	assert.Equal(t, XPPerMessage+XPRutina, gain)
	assert.True(t, flags.RutinaClaimed)
}

func TestComputeGainAttachmentCap(t *testing.T) {
	today := "2025-03-10"
	state := DailyState{}
	event := MessageEvent{Content: "mi progreso", Attachments: 1}

	total := 0
	for i := 0; i < 6; i++ {
		gain, flags := ComputeGain(event, state, today)
		total += gain
		state = state.Advance(flags, today)
		if i < MaxAttachmentBonuses {
			assert.True(t, flags.AttachmentClaimed, "message %d", i+1)
		} else {
			assert.False(t, flags.AttachmentClaimed, "message %d", i+1)
		}
	}
	assert.Equal(t, 6*XPPerMessage+MaxAttachmentBonuses*XPAttachment, total)
	assert.Equal(t, MaxAttachmentBonuses, state.AttachmentsToday)

	// day rollover resets the counter
	gain, flags := ComputeGain(event, state, "2025-03-11")
	assert.Equal(t, XPPerMessage+XPAttachment, gain)
	assert.True(t, flags.AttachmentClaimed)
	state = state.Advance(flags, "2025-03-11")
	assert.Equal(t, 1, state.AttachmentsToday)
}

func TestDetectLevelUp(t *testing.T) {
	level, ok := DetectLevelUp(1, 150)
	require.True(t, ok)
	assert.Equal(t, 2, level)

	_, ok = DetectLevelUp(1, 149)
	assert.False(t, ok)

	// never fires on equal or lower
	_, ok = DetectLevelUp(2, 150)
	assert.False(t, ok)
	_, ok = DetectLevelUp(5, 150)
	assert.False(t, ok)
}

// Thirty plain messages on distinct days: base gain only, one level-up.
func TestPlainMessageProgression(t *testing.T) {
	state := DailyState{}
	xp := 0
	level := 1
	levelUps := 0

	for i := 0; i < 30; i++ {
		today := fmt.Sprintf("2025-04-%02d", i+1)
		gain, flags := ComputeGain(MessageEvent{Content: "buenos días"}, state, today)
		require.Equal(t, XPPerMessage, gain)
		state = state.Advance(flags, today)
		xp += gain
		if next, ok := DetectLevelUp(level, xp); ok {
			level = next
			levelUps++
		}
	}

	assert.Equal(t, 150, xp)
	assert.Equal(t, 2, level)
	assert.Equal(t, 1, levelUps)
}

// Interleaving order never changes a day's total: every permutation of
// the same messages claims the same bonuses and lands on the same XP.
func TestDailyGainsOrderIndependent(t *testing.T) {
	messages := []MessageEvent{
		{Content: "rutina hecha! 💪"},
		{Content: "foto 1", Attachments: 1},
		{Content: "hola"},
		{Content: "foto 2", Attachments: 2},
		{Content: "foto 3", Attachments: 1},
		{Content: "RUTINA HECHA! otra vez"},
		{Content: "foto 4", Attachments: 1},
		{Content: "foto 5", Attachments: 1},
	}
	const today = "2025-04-07"

	run := func(order []int) int {
		state := DailyState{}
		total := 0
		for _, i := range order {
			gain, flags := ComputeGain(messages[i], state, today)
			state = state.Advance(flags, today)
			total += gain
		}
		return total
	}

	forward := make([]int, len(messages))
	backward := make([]int, len(messages))
	for i := range messages {
		forward[i] = i
		backward[i] = len(messages) - 1 - i
	}
	shuffled := []int{3, 0, 7, 5, 1, 6, 2, 4}

	// 8×5 base + 15 rutina once + 20×4 attachment cap
	want := 8*XPPerMessage + XPRutina + 4*XPAttachment
	assert.Equal(t, want, run(forward))
	assert.Equal(t, want, run(backward))
	assert.Equal(t, want, run(shuffled))
	assert.Equal(t, LevelForXP(run(forward)), LevelForXP(run(shuffled)))
}

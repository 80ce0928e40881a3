package progression

import "strings"

const (
	XPPerMessage = 5
	XPRutina     = 15
	XPAttachment = 20

	XPPerLevel           = 150
	MaxAttachmentBonuses = 4

	// RutinaMarker is matched case-insensitively anywhere in the message.
	RutinaMarker = "RUTINA HECHA!"
)

// MessageEvent is a single qualifying community message.
type MessageEvent struct {
	Content     string
	Attachments int
}

// DailyState is the per-user daily bonus bookkeeping. Dates are UTC
// calendar days formatted 2006-01-02; empty means never claimed.
type DailyState struct {
	LastRutinaDate     string
	LastAttachmentDate string
	AttachmentsToday   int
}

// GainFlags reports which daily bonuses a gain consumed, so the caller can
// persist them together with the XP delta.
type GainFlags struct {
	RutinaClaimed     bool
	AttachmentClaimed bool
}

// LevelForXP derives the level from total XP. Pure, total, monotonic
// non-decreasing.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// HasRutinaMarker reports whether the text claims a completed routine.
func HasRutinaMarker(content string) bool {
	return strings.Contains(strings.ToUpper(content), RutinaMarker)
}

// ComputeGain returns the XP delta a message earns given the prior daily
// state, plus the flags the gain consumed. It never fails: every input is
// well-formed by construction.
func ComputeGain(event MessageEvent, prior DailyState, today string) (int, GainFlags) {
	gain := XPPerMessage
	var flags GainFlags

	if HasRutinaMarker(event.Content) && prior.LastRutinaDate != today {
		gain += XPRutina
		flags.RutinaClaimed = true
	}

	if event.Attachments > 0 {
		count := prior.AttachmentsToday
		if prior.LastAttachmentDate != today {
			count = 0
		}
		if count < MaxAttachmentBonuses {
			gain += XPAttachment
			flags.AttachmentClaimed = true
		}
	}

	return gain, flags
}

// Advance returns the daily state after a gain computed for today. The
// persistence layer applies the same transition inside its atomic upsert;
// this form exists for the pure rules and their tests.
func (s DailyState) Advance(flags GainFlags, today string) DailyState {
	next := s
	if flags.RutinaClaimed {
		next.LastRutinaDate = today
	}
	if flags.AttachmentClaimed {
		if s.LastAttachmentDate != today {
			next.AttachmentsToday = 1
		} else {
			next.AttachmentsToday = s.AttachmentsToday + 1
		}
		next.LastAttachmentDate = today
	}
	return next
}

// DetectLevelUp signals a level-up only on a strict increase. XP deltas are
// additive-only in this system, so a level can never go down.
func DetectLevelUp(oldLevel, newXP int) (int, bool) {
	newLevel := LevelForXP(newXP)
	if newLevel > oldLevel {
		return newLevel, true
	}
	return 0, false
}

package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestISOWeekKey(t *testing.T) {
	// 2025-01-01 falls in ISO week 1 of 2025
	assert.Equal(t, "2025-W01", ISOWeekKey(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)))
	// 2023-01-01 is a Sunday belonging to ISO week 52 of 2022
	assert.Equal(t, "2022-W52", ISOWeekKey(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	// same week, different days
	assert.Equal(t,
		ISOWeekKey(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		ISOWeekKey(time.Date(2025, 3, 16, 23, 59, 0, 0, time.UTC)))
	// week rollover
	assert.NotEqual(t,
		ISOWeekKey(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)),
		ISOWeekKey(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)))
}

func TestDateKey(t *testing.T) {
	// a late-evening instant west of UTC still keys on the UTC day
	loc := time.FixedZone("UTC-5", -5*3600)
	assert.Equal(t, "2025-03-11", DateKey(time.Date(2025, 3, 10, 22, 0, 0, 0, loc)))
}

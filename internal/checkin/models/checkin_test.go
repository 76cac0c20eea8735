package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	t.Run("instant late in UTC lands on next local day", func(t *testing.T) {
		instant := time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)
		day := CalendarDay(instant, tokyo)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, tokyo), day)
	})

	t.Run("instants on the same local day collapse", func(t *testing.T) {
		morning := time.Date(2026, 3, 15, 0, 1, 0, 0, tokyo)
		night := time.Date(2026, 3, 15, 23, 59, 0, 0, tokyo)
		assert.True(t, CalendarDay(morning, tokyo).Equal(CalendarDay(night, tokyo)))
	})

	t.Run("nil location uses local time", func(t *testing.T) {
		instant := time.Now()
		assert.Equal(t, CalendarDay(instant, time.Local), CalendarDay(instant, nil))
	})
}

func TestCheckInLogDay(t *testing.T) {
	log := &CheckInLog{CheckInDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2026-03-15", log.Day())
}

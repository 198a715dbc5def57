package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUSHolidays(t *testing.T) {
	cal := newHolidayCalendar()

	// Fixed-date holidays.
	assert.True(t, cal.IsHoliday(date(2026, time.January, 1)))
	assert.True(t, cal.IsHoliday(date(2026, time.July, 4)))
	assert.True(t, cal.IsHoliday(date(2026, time.December, 25)))

	// Floating holidays: Thanksgiving 2026 is November 26, Memorial
	// Day 2026 is May 25, Labor Day 2026 is September 7.
	assert.True(t, cal.IsHoliday(date(2026, time.November, 26)))
	assert.True(t, cal.IsHoliday(date(2026, time.May, 25)))
	assert.True(t, cal.IsHoliday(date(2026, time.September, 7)))

	assert.False(t, cal.IsHoliday(date(2026, time.March, 11)))
}

func TestObservedHolidays(t *testing.T) {
	cal := newHolidayCalendar()

	// July 4 2026 is a Saturday, observed Friday July 3.
	assert.True(t, cal.IsHoliday(date(2026, time.July, 3)))
	// January 1 2028 is a Saturday, observed Friday December 31 2027.
	assert.True(t, cal.IsHoliday(date(2027, time.December, 31)))
	// Juneteenth 2027 (Saturday June 19) observed Friday June 18.
	assert.True(t, cal.IsHoliday(date(2027, time.June, 18)))
}

func TestIsHolidayIgnoresTimeOfDay(t *testing.T) {
	cal := newHolidayCalendar()
	noon := time.Date(2026, time.December, 25, 12, 30, 0, 0, time.UTC)
	assert.True(t, cal.IsHoliday(noon))
}

func TestWeekdayIndex(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := date(2026, time.August, 24)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, weekdayIndex(monday.AddDate(0, 0, i)))
	}
}

func TestMondayOf(t *testing.T) {
	monday := date(2026, time.August, 24)
	for i := 0; i < 7; i++ {
		assert.Equal(t, monday, mondayOf(monday.AddDate(0, 0, i)))
	}
}

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, date(2026, time.February, 28), lastDayOfMonth(date(2026, time.February, 10)))
	assert.Equal(t, date(2028, time.February, 29), lastDayOfMonth(date(2028, time.February, 1)))
	assert.Equal(t, date(2026, time.December, 31), lastDayOfMonth(date(2026, time.December, 31)))
}

func TestNthAndLastWeekday(t *testing.T) {
	// Thanksgiving 2025: fourth Thursday of November is the 27th.
	assert.Equal(t, date(2025, time.November, 27), nthWeekday(2025, time.November, time.Thursday, 4))
	// Memorial Day 2025: last Monday of May is the 26th.
	assert.Equal(t, date(2025, time.May, 26), lastWeekday(2025, time.May, time.Monday))
}

package forecast

import "time"

// US federal holiday calendar. Training used the same calendar, so the
// is_holiday feature must agree with it, including observed dates
// (Saturday holidays observed Friday, Sunday holidays observed Monday).

func usHolidays(year int) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, 16)

	addObserved := func(d time.Time) {
		set[d] = struct{}{}
		switch d.Weekday() {
		case time.Saturday:
			set[d.AddDate(0, 0, -1)] = struct{}{}
		case time.Sunday:
			set[d.AddDate(0, 0, 1)] = struct{}{}
		}
	}
	add := func(d time.Time) { set[d] = struct{}{} }

	addObserved(date(year, time.January, 1))    // New Year's Day
	add(nthWeekday(year, time.January, time.Monday, 3))   // Martin Luther King Jr. Day
	add(nthWeekday(year, time.February, time.Monday, 3))  // Washington's Birthday
	add(lastWeekday(year, time.May, time.Monday))         // Memorial Day
	addObserved(date(year, time.June, 19))      // Juneteenth
	addObserved(date(year, time.July, 4))       // Independence Day
	add(nthWeekday(year, time.September, time.Monday, 1)) // Labor Day
	add(nthWeekday(year, time.October, time.Monday, 2))   // Columbus Day
	addObserved(date(year, time.November, 11))  // Veterans Day
	add(nthWeekday(year, time.November, time.Thursday, 4)) // Thanksgiving
	addObserved(date(year, time.December, 25))  // Christmas Day

	return set
}

// holidayCalendar memoizes per-year holiday sets. Lookup is by civil
// date; callers must pass midnight-UTC dates (see civil()).
type holidayCalendar struct {
	years map[int]map[time.Time]struct{}
}

func newHolidayCalendar() *holidayCalendar {
	return &holidayCalendar{years: make(map[int]map[time.Time]struct{})}
}

func (c *holidayCalendar) IsHoliday(d time.Time) bool {
	d = civil(d)
	set, ok := c.years[d.Year()]
	if !ok {
		set = usHolidays(d.Year())
		c.years[d.Year()] = set
	}
	_, hit := set[d]
	return hit
}

// civil truncates a timestamp to its calendar date in UTC.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the n-th occurrence of a weekday in a month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// weekdayIndex maps Monday=0 .. Sunday=6, the convention the models
// were trained with.
func weekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// mondayOf returns the Monday of the week containing d.
func mondayOf(d time.Time) time.Time {
	return civil(d).AddDate(0, 0, -weekdayIndex(d))
}

// lastDayOfMonth returns the final calendar day of d's month.
func lastDayOfMonth(d time.Time) time.Time {
	d = civil(d)
	return date(d.Year(), d.Month()+1, 1).AddDate(0, 0, -1)
}

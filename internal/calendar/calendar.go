package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownCalendar is returned for calendar identifiers this resolver
// does not implement. Callers treat it as a fatal configuration error.
var ErrUnknownCalendar = errors.New("unknown market calendar")

// TradingDays returns the ordered sequence of trading sessions between
// start and end inclusive, excluding weekends and exchange holidays.
// Results are deterministic for a given (start, end, calendarID).
func TradingDays(start, end time.Time, calendarID string) ([]time.Time, error) {
	switch calendarID {
	case "NYSE", "XNYS":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCalendar, calendarID)
	}

	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return nil, nil
	}

	holidays := make(map[string]bool)
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range nyseHolidays(year) {
			holidays[h.Format("2006-01-02")] = true
		}
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if holidays[d.Format("2006-01-02")] {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}

// nyseHolidays returns the observed NYSE full-closure holidays for a year.
func nyseHolidays(year int) []time.Time {
	var holidays []time.Time

	// New Year's Day: a Sunday observance moves to Monday; a Saturday
	// Jan 1 is not observed by the exchange.
	newYears := date(year, time.January, 1)
	switch newYears.Weekday() {
	case time.Sunday:
		holidays = append(holidays, newYears.AddDate(0, 0, 1))
	case time.Saturday:
	default:
		holidays = append(holidays, newYears)
	}

	holidays = append(holidays,
		nthWeekday(year, time.January, time.Monday, 3),  // MLK Day
		nthWeekday(year, time.February, time.Monday, 3), // Washington's Birthday
		goodFriday(year),
		lastWeekday(year, time.May, time.Monday), // Memorial Day
	)

	// Juneteenth, first observed by the exchange in 2022
	if year >= 2022 {
		holidays = append(holidays, observed(date(year, time.June, 19)))
	}

	holidays = append(holidays,
		observed(date(year, time.July, 4)),                // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(year, time.December, 25)),           // Christmas
	)

	return holidays
}

// observed shifts Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// goodFriday is two days before Easter Sunday, via the anonymous Gregorian
// computus.
func goodFriday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	easter := date(year, time.Month(month), day)
	return easter.AddDate(0, 0, -2)
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

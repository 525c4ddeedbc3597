package util

import (
	"time"
)

// usMarketHolidays are fixed-date and observed US equity market holidays.
// Floating holidays (Thanksgiving, MLK, Presidents Day, Memorial Day, Labor
// Day, Good Friday) are computed in isFloatingHoliday.
func isFixedHoliday(t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch {
	case m == time.January && d == 1: // New Year's Day
		return true
	case m == time.June && d == 19: // Juneteenth
		return true
	case m == time.July && d == 4: // Independence Day
		return true
	case m == time.December && d == 25: // Christmas
		return true
	}
	return false
}

func isFloatingHoliday(t time.Time) bool {
	m, d, wd := t.Month(), t.Day(), t.Weekday()
	nth := (d-1)/7 + 1
	switch {
	case m == time.January && wd == time.Monday && nth == 3: // MLK Day
		return true
	case m == time.February && wd == time.Monday && nth == 3: // Presidents Day
		return true
	case m == time.May && wd == time.Monday && d >= 25: // Memorial Day (last Mon)
		return true
	case m == time.September && wd == time.Monday && nth == 1: // Labor Day
		return true
	case m == time.November && wd == time.Thursday && nth == 4: // Thanksgiving
		return true
	}
	return false
}

// IsTradingDay reports whether t falls on a US equity trading day. Weekends
// and the major exchange holidays are excluded; Good Friday and one-off
// closures are not modelled.
func IsTradingDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isFixedHoliday(t) && !isFloatingHoliday(t)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevTradingDay returns the last trading day strictly before t.
func PrevTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDays returns every trading day in [start, end], inclusive.
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

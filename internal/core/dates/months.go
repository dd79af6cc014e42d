package dates

import "time"

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// AddMonths shifts d by n months (n may be negative). The day of month is
// clamped to the last day of the target month, so Jan 31 + 1 is Feb 28 (or 29)
// and never rolls into March.
func AddMonths(d Date, n int) Date {
	// month index from year 0, zero-based
	idx := d.Year*12 + int(d.Month-1) + n
	year := floorDiv(idx, 12)
	month := time.Month(idx-year*12) + 1

	day := d.Day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

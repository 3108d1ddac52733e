// Package period implements the calendar-month arithmetic used by recurring
// billing. A period is a "YYYY-MM" label identifying one monthly charge.
package period

import (
	"fmt"
	"regexp"
	"time"
)

var labelPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Label formats the calendar month containing t as "YYYY-MM".
func Label(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ValidLabel reports whether value is a well-formed "YYYY-MM" label.
func ValidLabel(value string) bool {
	return labelPattern.MatchString(value)
}

// ElapsedMonths returns the number of whole months between start and asOf
// with no proration: the current month only counts once the day-of-month in
// asOf has reached the day-of-month in start. Never negative.
func ElapsedMonths(start, asOf time.Time) int {
	months := (asOf.Year()-start.Year())*12 + int(asOf.Month()) - int(start.Month())
	if asOf.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Sequence returns period labels for n consecutive months starting at the
// month containing start.
func Sequence(start time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	labels := make([]string, 0, n)
	year, month := start.Year(), int(start.Month())
	for i := 0; i < n; i++ {
		labels = append(labels, fmt.Sprintf("%04d-%02d", year, month))
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return labels
}

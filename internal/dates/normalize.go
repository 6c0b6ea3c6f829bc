package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	hoursToken = "godz."
	daysToken  = "dni"

	// Offsets beyond these are not real listing ages.
	maxDaysAgo  = 3660
	maxHoursAgo = maxDaysAgo * 24

	// absoluteLayout parses the composed "D-MM-YYYY" form with or without a leading zero day.
	absoluteLayout = "2-01-2006"
)

// Normalize converts portal date text into a timestamp relative to ref.
//
// "N godz." is N hours before ref truncated to the hour, "N dni" is N days before
// midnight of ref's day, and "D MonthName YYYY" is looked up in months for locale pl.
// Anything it cannot interpret returns false.
func Normalize(raw string, ref time.Time, months MonthMapping) (time.Time, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return time.Time{}, false
	}

	for _, tok := range tokens {
		switch tok {
		case hoursToken:
			n, ok := offset(tokens[0], maxHoursAgo)
			if !ok {
				return time.Time{}, false
			}
			top := time.Date(ref.Year(), ref.Month(), ref.Day(), ref.Hour(), 0, 0, 0, ref.Location())
			return top.Add(-time.Duration(n) * time.Hour), true
		case daysToken:
			n, ok := offset(tokens[0], maxDaysAgo)
			if !ok {
				return time.Time{}, false
			}
			midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
			return midnight.AddDate(0, 0, -n), true
		}
	}

	return parseAbsolute(tokens, ref.Location(), months)
}

// offset parses a relative-date count in [0, limit].
func offset(tok string, limit int) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || n > limit {
		return 0, false
	}
	return n, true
}

// ComposeAbsolute renders "D MonthName YYYY" tokens as "D-MM-YYYY", using MonthSentinel
// for month names missing from months.
func ComposeAbsolute(tokens []string, months MonthMapping) (string, error) {
	if len(tokens) != 3 {
		return "", fmt.Errorf("expected 3 date tokens, got %d", len(tokens))
	}
	return tokens[0] + "-" + months.Lookup("pl", tokens[1]) + "-" + tokens[2], nil
}

func parseAbsolute(tokens []string, loc *time.Location, months MonthMapping) (time.Time, bool) {
	composed, err := ComposeAbsolute(tokens, months)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(absoluteLayout, composed, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

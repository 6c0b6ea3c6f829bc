package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

// ParsePageNumber extracts a positive page number from control text such as "12" or "z 12".
func ParsePageNumber(s string) (int, error) {
	digits := CleanNumericString(s)
	if digits == "" {
		return 0, fmt.Errorf("no digits in %q", strings.TrimSpace(s))
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q: %w", digits, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("page number %d is below 1", n)
	}
	return n, nil
}

// CollapseSpace trims s and folds internal runs of whitespace into single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

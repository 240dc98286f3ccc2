// Package numbering implements the DECL-<year>-<counter> identifiers.
// Counters are scoped to one owner and one calendar year and are
// zero-padded to four digits; larger counters simply widen.
package numbering

import (
	"fmt"
	"regexp"
	"strconv"
)

const prefix = "DECL"

var numberRe = regexp.MustCompile(`^DECL-(\d{4})-(\d{4,})$`)

// Prefix is the LIKE-able prefix shared by every number of a year.
func Prefix(year int) string {
	return fmt.Sprintf("%s-%d-", prefix, year)
}

func Format(year, counter int) string {
	return fmt.Sprintf("%s%04d", Prefix(year), counter)
}

// Parse splits a number into its year and counter.
func Parse(number string) (year, counter int, err error) {
	m := numberRe.FindStringSubmatch(number)
	if m == nil {
		return 0, 0, fmt.Errorf("malformed declaration number %q", number)
	}
	year, _ = strconv.Atoi(m[1])
	counter, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("declaration number %q: %w", number, err)
	}
	return year, counter, nil
}

// Next returns the number following last within year. An empty last, or one
// from another year, starts the sequence at 1.
func Next(year int, last string) (string, error) {
	if last == "" {
		return Format(year, 1), nil
	}
	y, n, err := Parse(last)
	if err != nil {
		return "", err
	}
	if y != year {
		return Format(year, 1), nil
	}
	return Format(year, n+1), nil
}

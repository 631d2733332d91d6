package notifier

import (
	"fmt"
	"regexp"
	"time"
)

var (
	dataDateRe = regexp.MustCompile(`(\d\d?/\d\d?/\d\d\d\d)`)
	dataTimeRe = regexp.MustCompile(`(\d\d?:\d\d.m)`)
)

const observedAtLayout = "1/2/2006 3:04pm"

// parseObservedAt extracts the publication date and time from the free-text
// info label ("... as of 6/29/2020 8:00pm ...") and normalizes the instant
// into the US/Pacific time zone.
func parseObservedAt(info string) (time.Time, error) {
	date := dataDateRe.FindString(info)
	clock := dataTimeRe.FindString(info)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("counter: no timestamp in info %q: %w", info, ErrDateParse)
	}

	loc, err := time.LoadLocation("US/Pacific")
	if err != nil {
		return time.Time{}, fmt.Errorf("counter: %v: %w", err, ErrDateParse)
	}

	t, err := time.ParseInLocation(observedAtLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("counter: timestamp %q: %w", date+" "+clock, ErrDateParse)
	}

	return t, nil
}

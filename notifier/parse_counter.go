package notifier

import (
	"fmt"
	"regexp"
	"strconv"
)

var nonDigitRe = regexp.MustCompile(`[^0-9]`)

// counterItem extracts a labeled value from the semi-structured counter
// blob. Fields may appear in any order.
func counterItem(raw []byte, property string) (string, bool) {
	re := regexp.MustCompile(`"` + property + `":\s*"(.+?)",?`)
	m := re.FindSubmatch(raw)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

func counterNumber(raw []byte, property string) (int, error) {
	v, ok := counterItem(raw, property)
	if !ok {
		return 0, fmt.Errorf("counter: field %q not found: %w", property, ErrParse)
	}
	return sanitizeNumber(v, property)
}

// sanitizeNumber strips every non-digit character ("1,234" becomes 1234)
// and parses the remainder as a base-10 integer.
func sanitizeNumber(s, field string) (int, error) {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return 0, fmt.Errorf("field %q: %q is not numeric: %w", field, s, ErrParse)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("field %q: %q: %v: %w", field, s, err, ErrParse)
	}

	return n, nil
}

// ParseCounter validates the counter blob into a CounterRecord. Validation
// is all-or-nothing: any missing or unparseable field fails the record.
// TotalHospitalized comes from the page fragment and is filled in by the
// caller.
func ParseCounter(raw []byte) (CounterRecord, error) {
	totalCases, err := counterNumber(raw, "count")
	if err != nil {
		return CounterRecord{}, err
	}
	totalDeaths, err := counterNumber(raw, "death")
	if err != nil {
		return CounterRecord{}, err
	}
	dailyCases, err := counterNumber(raw, "dailycount")
	if err != nil {
		return CounterRecord{}, err
	}
	dailyDeaths, err := counterNumber(raw, "dailydeath")
	if err != nil {
		return CounterRecord{}, err
	}

	update, ok := counterItem(raw, "date")
	if !ok {
		return CounterRecord{}, fmt.Errorf("counter: field %q not found: %w", "date", ErrParse)
	}
	info, ok := counterItem(raw, "info")
	if !ok {
		return CounterRecord{}, fmt.Errorf("counter: field %q not found: %w", "info", ErrParse)
	}

	observedAt, err := parseObservedAt(info)
	if err != nil {
		return CounterRecord{}, err
	}

	return CounterRecord{
		TotalCases:  totalCases,
		TotalDeaths: totalDeaths,
		DailyCases:  dailyCases,
		DailyDeaths: dailyDeaths,
		UpdateLabel: update,
		InfoLabel:   info,
		ObservedAt:  observedAt,
	}, nil
}

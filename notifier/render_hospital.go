package notifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// trendWindow is the length of the moving average used for week-over-week
// comparison.
const trendWindow = 7

const displayZone = "America/Los_Angeles"

// movingAvg returns the arithmetic mean of col over the first window rows,
// rounded to the nearest integer.
func movingAvg(rows []HospitalizationRow, col func(HospitalizationRow) int, window int) (int, error) {
	if len(rows) < window {
		return 0, fmt.Errorf("hospital: need %d rows for trend, have %d: %w", window, len(rows), ErrParse)
	}

	sum := 0
	for _, r := range rows[:window] {
		sum += col(r)
	}

	return int(math.Round(float64(sum) / float64(window))), nil
}

// formatDiff renders the week-over-week delta with a directional marker and
// the percentage change to at most one decimal place.
func formatDiff(today, lastWeek int) string {
	diff := today - lastWeek
	pct := math.Abs(float64(diff)) / float64(lastWeek) * 100

	marker := "⬇"
	if diff > 0 {
		marker = "⬆"
	}

	s := strconv.FormatFloat(pct, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")

	return fmt.Sprintf("%s%s%%", marker, s)
}

// displayDate reinterprets an upstream row date in the display time zone.
func displayDate(raw, layout string) (string, error) {
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		return "", fmt.Errorf("hospital: %v: %w", err, ErrDateParse)
	}

	for _, l := range []string{"2006-01-02T15:04:05", "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(l, raw, loc); err == nil {
			return t.Format(layout), nil
		}
	}

	return "", fmt.Errorf("hospital: date %q: %w", raw, ErrDateParse)
}

// RenderHospital composes the notification body for a hospitalization
// update: the newest day's numbers with 7-day averages compared against the
// averages of the week before.
func RenderHospital(rows []HospitalizationRow) (string, error) {
	if len(rows) < 2*trendWindow {
		return "", fmt.Errorf("hospital: need at least %d rows, got %d: %w", 2*trendWindow, len(rows), ErrParse)
	}

	confirmed := func(r HospitalizationRow) int { return r.ConfirmedPatients }
	icuConfirmed := func(r HospitalizationRow) int { return r.ICUConfirmedPatients }
	icuBeds := func(r HospitalizationRow) int { return r.ICUAvailableBeds }

	today := rows[0]
	lastWeekRows := rows[trendWindow:]

	confirmedAvg, err := movingAvg(rows, confirmed, trendWindow)
	if err != nil {
		return "", err
	}
	icuAvg, err := movingAvg(rows, icuConfirmed, trendWindow)
	if err != nil {
		return "", err
	}
	bedsAvg, err := movingAvg(rows, icuBeds, trendWindow)
	if err != nil {
		return "", err
	}

	lastConfirmedAvg, err := movingAvg(lastWeekRows, confirmed, trendWindow)
	if err != nil {
		return "", err
	}
	lastICUAvg, err := movingAvg(lastWeekRows, icuConfirmed, trendWindow)
	if err != nil {
		return "", err
	}
	lastBedsAvg, err := movingAvg(lastWeekRows, icuBeds, trendWindow)
	if err != nil {
		return "", err
	}

	formattedDate, err := displayDate(today.Date, "1/2/2006")
	if err != nil {
		return "", err
	}
	lastWeekDate, err := displayDate(lastWeekRows[0].Date, "1/2")
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		fmt.Sprintf("COVID-19+ Hospitalizations\n%s", formattedDate),
		strings.Join([]string{
			fmt.Sprintf("Patients: %d (+ %d suspected)", today.ConfirmedPatients, today.SuspectedPatients),
			fmt.Sprintf("7d avg: %d, %s*", confirmedAvg, formatDiff(confirmedAvg, lastConfirmedAvg)),
		}, "\n"),
		strings.Join([]string{
			fmt.Sprintf("ICU Patients: %d (+ %d suspected)", today.ICUConfirmedPatients, today.ICUSuspectedPatients),
			fmt.Sprintf("7d avg: %d, %s*", icuAvg, formatDiff(icuAvg, lastICUAvg)),
		}, "\n"),
		strings.Join([]string{
			fmt.Sprintf("Avail ICU Beds: %d", today.ICUAvailableBeds),
			fmt.Sprintf("7d avg: %d, %s*", bedsAvg, formatDiff(bedsAvg, lastBedsAvg)),
		}, "\n"),
		fmt.Sprintf("* since %s", lastWeekDate),
	}, "\n\n"), nil
}

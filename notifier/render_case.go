package notifier

import (
	"fmt"
	"strings"
)

// RenderCase composes the notification body for a counter update. Pure and
// deterministic.
func RenderCase(rec CounterRecord) string {
	return strings.Join([]string{
		fmt.Sprintf("LA County COVID-19 %s Update. Cases %s.", rec.UpdateLabel, rec.InfoLabel),
		fmt.Sprintf("Daily new cases: %d", rec.DailyCases),
		fmt.Sprintf("Daily new deaths: %d", rec.DailyDeaths),
		fmt.Sprintf("Total cases: %d", rec.TotalCases),
		fmt.Sprintf("Total deaths: %d", rec.TotalDeaths),
		fmt.Sprintf("Total hospitalized: %d", rec.TotalHospitalized),
	}, "\n\n")
}

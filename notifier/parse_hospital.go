package notifier

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

// minHospitalRows is the shortest series that supports the current-week vs
// prior-week trend computation.
const minHospitalRows = 14

// datastoreRow is the wire shape of one hospitalization row as published by
// the upstream datastore: every field is a string.
type datastoreRow struct {
	Date                 string `json:"todays_date"`
	ConfirmedPatients    string `json:"hospitalized_covid_confirmed_patients"`
	SuspectedPatients    string `json:"hospitalized_suspected_covid_patients"`
	ICUConfirmedPatients string `json:"icu_covid_confirmed_patients"`
	ICUSuspectedPatients string `json:"icu_suspected_covid_patients"`
	ICUAvailableBeds     string `json:"icu_available_beds"`
}

type datastoreResponse struct {
	Result struct {
		Records []datastoreRow `json:"records"`
	} `json:"result"`
}

// decodeHospitalRecords unpacks the datastore query response envelope.
func decodeHospitalRecords(raw []byte) ([]datastoreRow, error) {
	var resp datastoreResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("hospital: %v: %w", err, ErrParse)
	}
	return resp.Result.Records, nil
}

// ValidateHospitalRows converts the wire rows into typed rows. All numeric
// fields must parse after stripping non-digit characters; a single bad field
// or a short series fails the whole record set.
func ValidateHospitalRows(rows []datastoreRow) ([]HospitalizationRow, error) {
	if len(rows) < minHospitalRows {
		return nil, fmt.Errorf("hospital: need at least %d rows, got %d: %w", minHospitalRows, len(rows), ErrParse)
	}

	out := make([]HospitalizationRow, 0, len(rows))
	for i, r := range rows {
		if strings.TrimSpace(r.Date) == "" {
			return nil, fmt.Errorf("hospital: row %d has no date: %w", i, ErrParse)
		}

		confirmed, err := sanitizeNumber(r.ConfirmedPatients, "hospitalized_covid_confirmed_patients")
		if err != nil {
			return nil, fmt.Errorf("hospital: row %d: %w", i, err)
		}
		suspected, err := sanitizeNumber(r.SuspectedPatients, "hospitalized_suspected_covid_patients")
		if err != nil {
			return nil, fmt.Errorf("hospital: row %d: %w", i, err)
		}
		icuConfirmed, err := sanitizeNumber(r.ICUConfirmedPatients, "icu_covid_confirmed_patients")
		if err != nil {
			return nil, fmt.Errorf("hospital: row %d: %w", i, err)
		}
		icuSuspected, err := sanitizeNumber(r.ICUSuspectedPatients, "icu_suspected_covid_patients")
		if err != nil {
			return nil, fmt.Errorf("hospital: row %d: %w", i, err)
		}
		icuBeds, err := sanitizeNumber(r.ICUAvailableBeds, "icu_available_beds")
		if err != nil {
			return nil, fmt.Errorf("hospital: row %d: %w", i, err)
		}

		out = append(out, HospitalizationRow{
			Date:                 r.Date,
			ConfirmedPatients:    confirmed,
			SuspectedPatients:    suspected,
			ICUConfirmedPatients: icuConfirmed,
			ICUSuspectedPatients: icuSuspected,
			ICUAvailableBeds:     icuBeds,
		})
	}

	return out, nil
}

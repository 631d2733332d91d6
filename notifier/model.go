package notifier

import (
	"encoding/json"
	"time"
)

// Stream names for the two polled data sources.
const (
	StreamCase     = "case"
	StreamHospital = "hospital"
)

// CounterRecord is the validated form of one counter/page observation.
// All numeric fields are non-negative; ObservedAt is normalized to US/Pacific.
type CounterRecord struct {
	TotalCases        int       `json:"totalCases"`
	TotalDeaths       int       `json:"totalDeaths"`
	DailyCases        int       `json:"dailyCases"`
	DailyDeaths       int       `json:"dailyDeath"`
	UpdateLabel       string    `json:"update"`
	InfoLabel         string    `json:"info"`
	ObservedAt        time.Time `json:"dataDate"`
	TotalHospitalized int       `json:"totalHospitalized"`
}

// HospitalizationRow is one validated day of the hospitalization time series.
// Rows arrive ordered descending by date.
type HospitalizationRow struct {
	Date                 string `json:"todays_date"`
	ConfirmedPatients    int    `json:"hospitalized_covid_confirmed_patients"`
	SuspectedPatients    int    `json:"hospitalized_suspected_covid_patients"`
	ICUConfirmedPatients int    `json:"icu_covid_confirmed_patients"`
	ICUSuspectedPatients int    `json:"icu_suspected_covid_patients"`
	ICUAvailableBeds     int    `json:"icu_available_beds"`
}

// Trigger is the unit of work handed from an ingestion pipeline to the
// dispatch pipeline. Payload holds the validated record serialized as JSON.
type Trigger struct {
	Stream      string          `json:"stream"`
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
}

// StoredObservation is the append-only document written on every detected
// change. A new fingerprint always produces a new row; rows are never
// updated in place.
type StoredObservation struct {
	Stream      string
	RecordDate  string
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

// DispatchRecord marks a fingerprint as notified. Its existence is the sole
// source of truth for "already sent".
type DispatchRecord struct {
	Fingerprint string
	Stream      string
	Text        string
	Payload     []byte
	SentAt      time.Time
}

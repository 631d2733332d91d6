package notifier

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// HospitalPipeline polls the hospitalization datastore, detects content
// changes and hands changed row sets to the dispatch side.
type HospitalPipeline struct {
	sources      SourcesConfig
	fetcher      Fetcher
	state        StateStore
	observations ObservationStore
	triggers     TriggerPublisher
	logger       *zap.SugaredLogger
}

// NewHospitalPipeline creates a new HospitalPipeline
func NewHospitalPipeline(sources SourcesConfig, fetcher Fetcher, state StateStore, observations ObservationStore, triggers TriggerPublisher, logger *zap.SugaredLogger) *HospitalPipeline {
	return &HospitalPipeline{
		sources:      sources,
		fetcher:      fetcher,
		state:        state,
		observations: observations,
		triggers:     triggers,
		logger:       logger,
	}
}

// queryURL builds the filtered datastore query: the newest rows for the
// configured county, enough for the two-week trend.
func (p *HospitalPipeline) queryURL() string {
	query := fmt.Sprintf(
		`SELECT * from "%s" WHERE "county" ILIKE '%s' AND "todays_date" IS NOT NULL ORDER BY "todays_date" DESC LIMIT %d`,
		p.sources.DatasetID, p.sources.County, minHospitalRows,
	)

	return p.sources.DatastoreURL + "?sql=" + url.QueryEscape(query)
}

// Run executes one fetch-validate-detect-persist-enqueue cycle for the
// hospitalization stream.
func (p *HospitalPipeline) Run(ctx context.Context) error {
	body, err := p.fetcher.Get(ctx, p.queryURL())
	if err != nil {
		return err
	}

	records, err := decodeHospitalRecords(body)
	if err != nil {
		return err
	}

	// The fingerprint covers the canonical serialization of the decoded
	// row set, so incidental changes in the response envelope or key order
	// do not register as content changes.
	canonical, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("hospital: marshal rows: %v: %w", err, ErrParse)
	}

	prev, err := p.state.Get(ctx, hospitalStateKey)
	if err != nil {
		return err
	}

	detection := DetectChange(prev, canonical)
	if !detection.Changed {
		p.logger.Infof("hospital: content unchanged (fingerprint: %s)", detection.Fingerprint)
		return nil
	}

	rows, err := ValidateHospitalRows(records)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("hospital: marshal rows: %v: %w", err, ErrParse)
	}

	err = p.observations.Put(ctx, StoredObservation{
		Stream:      StreamHospital,
		RecordDate:  rows[0].Date,
		Fingerprint: detection.Fingerprint,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := p.state.Set(ctx, hospitalStateKey, detection.Fingerprint); err != nil {
		return err
	}

	p.logger.Infof("hospital: change detected (fingerprint: %s, rows: %d)", detection.Fingerprint, len(rows))

	return p.triggers.Publish(ctx, Trigger{
		Stream:      StreamHospital,
		Fingerprint: detection.Fingerprint,
		Payload:     payload,
	})
}

// Package teledb stores finished extraction runs in a SQLite database, so
// downstream tooling can query series and events without re-running OCR.
package teledb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/stagewatch/stagewatch/pkg/pipeline"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
	"gorm.io/gorm"
)

const sampleWriteBatchSize = 500

type TelemetryDB struct {
	log logs.Log
	db  *gorm.DB
}

// Open opens or creates the database.
func Open(logger logs.Log, dbFilename string) (*TelemetryDB, error) {
	os.MkdirAll(filepath.Dir(dbFilename), 0777)
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &TelemetryDB{
		log: logs.NewPrefixLogger(logger, "TelemetryDB"),
		db:  db,
	}, nil
}

// SaveRun writes one pipeline result as a new run, and returns its id.
func (t *TelemetryDB) SaveRun(result *pipeline.Result, videoURL string, configVersion int) (int64, error) {
	diag := dbh.JSONField[DiagnosticsJSON]{}
	diag.Data = DiagnosticsJSON{
		FramesSampled:     result.Diagnostics.FramesSampled,
		Observations:      result.Diagnostics.Observations,
		InvalidByReason:   map[string]int64{},
		Conflicts:         result.Diagnostics.Conflicts,
		AvgOCRNanoseconds: result.Diagnostics.AvgOCRNanoseconds,
	}
	for reason, n := range result.Diagnostics.InvalidByReason {
		diag.Data.InvalidByReason[string(reason)] = n
	}
	run := &Run{
		CreatedAt:     dbh.MakeIntTime(time.Now()),
		VideoURL:      videoURL,
		ConfigVersion: configVersion,
		Completed:     result.Completed,
		Diagnostics:   &diag,
	}
	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		rows := []Sample{}
		for _, series := range result.Series.Series {
			for _, s := range series.Samples {
				rows = append(rows, sampleRow(run.ID, series, s))
			}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, sampleWriteBatchSize).Error; err != nil {
				return err
			}
		}
		for _, ev := range result.Events {
			detail := dbh.JSONField[EventDetailJSON]{}
			detail.Data.AlsoSeen = ev.AlsoSeen
			for _, s := range ev.Evidence {
				detail.Data.EvidenceFrames = append(detail.Data.EvidenceFrames, s.FrameIndex)
			}
			row := &Event{
				RunID:      run.ID,
				Kind:       string(ev.Kind),
				Vehicle:    ev.Vehicle,
				FirstFrame: ev.FirstFrame,
				LastFrame:  ev.LastFrame,
				Confidence: ev.Confidence,
				Detail:     &detail,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	t.log.Infof("Saved run %v: %v samples, %v events", run.ID, result.Diagnostics.Observations, len(result.Events))
	return run.ID, nil
}

func sampleRow(runID int64, series *telemetry.Series, s telemetry.Sample) Sample {
	row := Sample{
		RunID:      runID,
		Vehicle:    s.Vehicle,
		Field:      s.Field,
		FrameIndex: s.FrameIndex,
		Value:      s.Value.Float(),
		Unit:       series.Unit,
		Valid:      s.Valid,
		Reason:     string(s.Reason),
		Confidence: s.Confidence,
		RawText:    s.RawText,
	}
	if s.Value.Kind == telemetry.ValueClock {
		row.Clock = s.Value.String()
	}
	return row
}

func (t *TelemetryDB) GetRun(id int64) (*Run, error) {
	run := &Run{}
	if err := t.db.First(run, id).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (t *TelemetryDB) ListRuns() ([]Run, error) {
	runs := []Run{}
	if err := t.db.Order("id").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListSamples returns one run's samples, optionally filtered by vehicle and
// field, ordered by frame.
func (t *TelemetryDB) ListSamples(runID int64, vehicle, field string) ([]Sample, error) {
	q := t.db.Where("run_id = ?", runID)
	if vehicle != "" {
		q = q.Where("vehicle = ?", vehicle)
	}
	if field != "" {
		q = q.Where("field = ?", field)
	}
	samples := []Sample{}
	if err := q.Order("field, frame_index").Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (t *TelemetryDB) ListEvents(runID int64) ([]Event, error) {
	events := []Event{}
	if err := t.db.Where("run_id = ?", runID).Order("first_frame").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

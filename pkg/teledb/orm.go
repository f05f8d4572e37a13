package teledb

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Run is one extraction over one video.
type Run struct {
	BaseModel
	CreatedAt     dbh.IntTime                     `json:"createdAt"`
	VideoURL      string                          `json:"videoUrl"`
	ConfigVersion int                             `json:"configVersion"`
	Completed     bool                            `json:"completed"` // false if the run was cancelled
	Diagnostics   *dbh.JSONField[DiagnosticsJSON] `json:"diagnostics"`
}

type DiagnosticsJSON struct {
	FramesSampled     int64            `json:"framesSampled"`
	Observations      int64            `json:"observations"`
	InvalidByReason   map[string]int64 `json:"invalidByReason"`
	Conflicts         int64            `json:"conflicts"`
	AvgOCRNanoseconds int64            `json:"avgOcrNanoseconds"`
}

// Sample is one telemetry reading. Invalid readings are stored too, with
// their reason, so a viewer can show gaps honestly.
type Sample struct {
	BaseModel
	RunID      int64   `json:"runId"`
	Vehicle    string  `json:"vehicle"`
	Field      string  `json:"field"`
	FrameIndex int64   `json:"frameIndex"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Clock      string  `json:"clock"` // rendered ±HH:MM:SS, only for clock fields
	Valid      bool    `json:"valid"`
	Reason     string  `json:"reason"`
	Confidence float32 `json:"confidence"`
	RawText    string  `json:"rawText"`
}

type Event struct {
	BaseModel
	RunID      int64                           `json:"runId"`
	Kind       string                          `json:"kind"`
	Vehicle    string                          `json:"vehicle"`
	FirstFrame int64                           `json:"firstFrame"`
	LastFrame  int64                           `json:"lastFrame"`
	Confidence float32                         `json:"confidence"`
	Detail     *dbh.JSONField[EventDetailJSON] `json:"detail"`
}

type EventDetailJSON struct {
	AlsoSeen       []string `json:"alsoSeen,omitempty"`
	EvidenceFrames []int64  `json:"evidenceFrames,omitempty"`
}

// Package flightevents detects named flight milestones from finished
// telemetry series. Detection is rule driven: a rule watches one field of
// every vehicle, and needs several consecutive triggering samples before it
// commits to an event, so a single OCR misread can never produce one.
package flightevents

import (
	"github.com/stagewatch/stagewatch/pkg/telemetry"
)

type Kind string

const (
	KindLiftoff         Kind = "liftoff"
	KindEngineCutoff    Kind = "engineCutoff"
	KindStageSeparation Kind = "stageSeparation"
)

type Event struct {
	Kind    Kind   `json:"kind"`
	Vehicle string `json:"vehicle,omitempty"`
	// The frame window from the first triggering sample to the sample
	// that confirmed the event.
	FirstFrame int64   `json:"firstFrame"`
	LastFrame  int64   `json:"lastFrame"`
	Confidence float32 `json:"confidence"` // mean OCR confidence of the evidence

	// The samples that triggered and confirmed the event.
	Evidence []telemetry.Sample `json:"evidence,omitempty"`

	// Other vehicles for which the same kind confirmed near-simultaneously.
	// Kept as metadata, never merged across vehicles.
	AlsoSeen []string `json:"alsoSeen,omitempty"`
}

type TriggerKind int

const (
	// Sample value at or above Threshold.
	TriggerAbove TriggerKind = iota
	// Sample value below Threshold.
	TriggerBelow
	// Value rising at Threshold or more per second, over the rule's window.
	TriggerRising
	// Value falling at Threshold or more per second, over the rule's window.
	TriggerFalling
)

// Rule describes one milestone detector. Threshold is in the field's
// canonical unit for level triggers, and canonical units per second for
// slope triggers.
type Rule struct {
	Kind      Kind
	Field     string
	Trigger   TriggerKind
	Threshold float64
	// Consecutive triggering samples needed before the event confirms.
	Debounce int
	// Number of recent samples used to estimate slope. Ignored for
	// level triggers.
	Window int
}

// DefaultRules covers a two-stage launch as seen on a broadcast overlay:
// speed coming alive is liftoff, every engine going dark is separation,
// and a sustained speed drop afterwards is the booster's cutoff coasting.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindLiftoff, Field: "speed", Trigger: TriggerAbove, Threshold: 5, Debounce: 3},
		{Kind: KindStageSeparation, Field: "engines", Trigger: TriggerBelow, Threshold: 1, Debounce: 3},
		{Kind: KindEngineCutoff, Field: "speed", Trigger: TriggerFalling, Threshold: 20, Debounce: 3, Window: 5},
	}
}

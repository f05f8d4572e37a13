// Package telemetry turns raw OCR text into typed, validated samples, and
// assembles them into ordered per-(vehicle, field) series.
package telemetry

import (
	"fmt"
	"sort"
)

type ValueKind int

const (
	ValueNumber ValueKind = iota // magnitude in a canonical unit (or a bare count)
	ValueClock                   // mission clock, signed seconds relative to T-0
)

type Value struct {
	Kind         ValueKind `json:"kind"`
	Number       float64   `json:"number,omitempty"`
	Unit         string    `json:"unit,omitempty"` // canonical unit, empty for counts
	ClockSeconds int64     `json:"clockSeconds,omitempty"`
}

func NumberValue(v float64, unit string) Value {
	return Value{Kind: ValueNumber, Number: v, Unit: unit}
}

func ClockValue(seconds int64) Value {
	return Value{Kind: ValueClock, ClockSeconds: seconds}
}

// Float returns the value as a plain number, for series math.
func (v Value) Float() float64 {
	if v.Kind == ValueClock {
		return float64(v.ClockSeconds)
	}
	return v.Number
}

// String renders the canonical text form: clocks as ±HH:MM:SS, numbers
// with their unit.
func (v Value) String() string {
	if v.Kind == ValueClock {
		s := v.ClockSeconds
		sign := "+"
		if s < 0 {
			sign = "-"
			s = -s
		}
		return fmt.Sprintf("%v%02d:%02d:%02d", sign, s/3600, (s/60)%60, s%60)
	}
	if v.Unit == "" {
		return fmt.Sprintf("%v", v.Number)
	}
	return fmt.Sprintf("%v %v", v.Number, v.Unit)
}

// InvalidReason says why a sample was flagged invalid. Invalid samples stay
// in the series for diagnostics and gap display, but are excluded from
// event-detection math.
type InvalidReason string

const (
	ReasonNone            InvalidReason = ""
	ReasonPatternMismatch InvalidReason = "patternMismatch"
	ReasonUnparsable      InvalidReason = "unparsable"
	ReasonImplausibleJump InvalidReason = "implausibleJump"
	ReasonLowConfidence   InvalidReason = "lowConfidence"
	ReasonGeometry        InvalidReason = "geometry"
)

type Sample struct {
	Vehicle    string        `json:"vehicle,omitempty"` // empty = scene-global
	Field      string        `json:"field"`
	FrameIndex int64         `json:"frameIndex"`
	Value      Value         `json:"value"`
	Valid      bool          `json:"valid"`
	Reason     InvalidReason `json:"reason,omitempty"`
	Confidence float32       `json:"confidence"`
	RawText    string        `json:"rawText,omitempty"`
}

// Conflict records two samples that arrived for the same frame of the same
// field. The losing sample is kept here, never silently discarded.
type Conflict struct {
	Kept      Sample `json:"kept"`
	Discarded Sample `json:"discarded"`
}

// Series is the ordered sample sequence for one (vehicle, field).
type Series struct {
	Vehicle   string     `json:"vehicle,omitempty"`
	Field     string     `json:"field"`
	Unit      string     `json:"unit,omitempty"`
	Samples   []Sample   `json:"samples"` // sorted by FrameIndex
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// ValidAt returns the valid sample at or before frameIndex, or nil.
func (s *Series) ValidAt(frameIndex int64) *Sample {
	at := sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].FrameIndex > frameIndex
	})
	for i := at - 1; i >= 0; i-- {
		if s.Samples[i].Valid {
			return &s.Samples[i]
		}
	}
	return nil
}

// Valid returns only the valid samples, in order.
func (s *Series) Valid() []Sample {
	valid := []Sample{}
	for _, sample := range s.Samples {
		if sample.Valid {
			valid = append(valid, sample)
		}
	}
	return valid
}

// SeriesSet is the finished product of a run: every series, ordered by
// (vehicle, field). Immutable once the pipeline completes.
type SeriesSet struct {
	Series []*Series `json:"series"`
}

func (ss *SeriesSet) Get(vehicle, field string) *Series {
	for _, s := range ss.Series {
		if s.Vehicle == vehicle && s.Field == field {
			return s
		}
	}
	return nil
}

// Vehicles returns the distinct vehicle names present, sorted.
func (ss *SeriesSet) Vehicles() []string {
	seen := map[string]bool{}
	names := []string{}
	for _, s := range ss.Series {
		if !seen[s.Vehicle] {
			seen[s.Vehicle] = true
			names = append(names, s.Vehicle)
		}
	}
	sort.Strings(names)
	return names
}

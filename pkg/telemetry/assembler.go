package telemetry

import (
	"sort"
	"sync"

	"github.com/stagewatch/stagewatch/pkg/gen"
)

type fieldKey struct {
	vehicle string
	field   string
}

type fieldAccum struct {
	unit      string
	maxDelta  float64
	samples   map[int64]Sample // keyed by frame index
	conflicts []Conflict
}

// Assembler collects samples from concurrent OCR workers and produces the
// final ordered SeriesSet. Appends may arrive in any frame order; ordering
// and step-delta plausibility are resolved in Finalize.
type Assembler struct {
	lock      sync.Mutex
	fields    map[fieldKey]*fieldAccum
	specs     map[fieldKey]*FieldSpec
	finalized *SeriesSet
}

func NewAssembler() *Assembler {
	return &Assembler{
		fields: map[fieldKey]*fieldAccum{},
		specs:  map[fieldKey]*FieldSpec{},
	}
}

// SetSpec registers the parse spec for a field, so Finalize can apply the
// step-delta check. Call before the first Append for that field.
func (a *Assembler) SetSpec(vehicle, field string, spec *FieldSpec) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.specs[fieldKey{vehicle, field}] = spec
}

// Append adds one sample. If a sample already exists for the same frame of
// the same field, the higher-confidence one wins, with ties keeping the
// incumbent, and the loser is recorded as a conflict.
func (a *Assembler) Append(s Sample) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.finalized != nil {
		// Stragglers after Finalize are dropped. The pipeline waits for
		// its workers before finalizing, so this only fires on misuse.
		return
	}
	key := fieldKey{s.Vehicle, s.Field}
	accum := a.fields[key]
	if accum == nil {
		accum = &fieldAccum{samples: map[int64]Sample{}}
		if spec := a.specs[key]; spec != nil {
			accum.maxDelta = spec.MaxStepDelta
			accum.unit = CanonicalUnit(spec.Unit)
		}
		if accum.unit == "" {
			accum.unit = s.Value.Unit
		}
		a.fields[key] = accum
	}
	existing, have := accum.samples[s.FrameIndex]
	if !have {
		accum.samples[s.FrameIndex] = s
		return
	}
	if s.Confidence > existing.Confidence {
		accum.samples[s.FrameIndex] = s
		accum.conflicts = append(accum.conflicts, Conflict{Kept: s, Discarded: existing})
	} else {
		accum.conflicts = append(accum.conflicts, Conflict{Kept: existing, Discarded: s})
	}
}

// ConflictCount returns the number of same-frame collisions seen so far.
func (a *Assembler) ConflictCount() int64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	n := int64(0)
	for _, accum := range a.fields {
		n += int64(len(accum.conflicts))
	}
	return n
}

// Finalize sorts every series by frame index, applies the step-delta
// plausibility check in that order, and freezes the result. Calling it
// again returns the same set.
func (a *Assembler) Finalize() *SeriesSet {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.finalized != nil {
		return a.finalized
	}
	keys := make([]fieldKey, 0, len(a.fields))
	for key := range a.fields {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].vehicle != keys[j].vehicle {
			return keys[i].vehicle < keys[j].vehicle
		}
		return keys[i].field < keys[j].field
	})
	set := &SeriesSet{}
	for _, key := range keys {
		accum := a.fields[key]
		series := &Series{
			Vehicle:   key.vehicle,
			Field:     key.field,
			Unit:      accum.unit,
			Samples:   make([]Sample, 0, len(accum.samples)),
			Conflicts: accum.conflicts,
		}
		for _, s := range accum.samples {
			series.Samples = append(series.Samples, s)
		}
		sort.Slice(series.Samples, func(i, j int) bool {
			return series.Samples[i].FrameIndex < series.Samples[j].FrameIndex
		})
		applyStepDelta(series.Samples, accum.maxDelta)
		set.Series = append(set.Series, series)
	}
	a.finalized = set
	return set
}

// applyStepDelta invalidates samples that jump too far from the preceding
// valid sample. Runs in frame order, so an invalidated sample does not
// become the comparison point for its successor.
func applyStepDelta(samples []Sample, maxDelta float64) {
	if maxDelta <= 0 {
		return
	}
	var prev *Sample
	for i := range samples {
		s := &samples[i]
		if !s.Valid {
			continue
		}
		if prev != nil {
			if gen.Abs(s.Value.Float()-prev.Value.Float()) > maxDelta {
				s.Valid = false
				s.Reason = ReasonImplausibleJump
				continue
			}
		}
		prev = s
	}
}

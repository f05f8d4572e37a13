package flightevents

import (
	"sort"

	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
	"github.com/stagewatch/stagewatch/pkg/gen"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
)

// Detector runs a set of rules over a finished SeriesSet.
type Detector struct {
	log       logs.Log
	rules     []Rule
	frameRate float64

	// Confirmations of the same kind for the same vehicle within this many
	// frames are merged into one event.
	mergeWindowFrames int64
}

// NewDetector creates a detector. frameRate is used to express slopes per
// second; if unknown (<= 0) slopes are computed per frame, so slope rule
// thresholds must be scaled accordingly by the caller.
func NewDetector(logger logs.Log, rules []Rule, frameRate float64, mergeWindowFrames int64) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	if frameRate <= 0 {
		frameRate = 1
	}
	if mergeWindowFrames <= 0 {
		mergeWindowFrames = 150
	}
	return &Detector{
		log:               logs.NewPrefixLogger(logger, "Events"),
		rules:             rules,
		frameRate:         frameRate,
		mergeWindowFrames: mergeWindowFrames,
	}
}

// Detect returns confirmed events, sorted by FirstFrame. Invalid samples
// are never fed to the rules.
func (d *Detector) Detect(set *telemetry.SeriesSet) []Event {
	events := []Event{}
	for _, rule := range d.rules {
		for _, series := range set.Series {
			if series.Field != rule.Field {
				continue
			}
			if ev := d.runRule(rule, series); ev != nil {
				events = append(events, *ev)
			}
		}
	}
	events = d.merge(events)
	d.annotateCrossVehicle(events)
	sort.Slice(events, func(i, j int) bool {
		if events[i].FirstFrame != events[j].FirstFrame {
			return events[i].FirstFrame < events[j].FirstFrame
		}
		return events[i].Vehicle < events[j].Vehicle
	})
	for _, ev := range events {
		d.log.Infof("%v (%v) frames %v..%v, confidence %.2f", ev.Kind, ev.Vehicle, ev.FirstFrame, ev.LastFrame, ev.Confidence)
	}
	return events
}

// runRule walks one series through the watching/candidate state machine and
// returns the first confirmed event, or nil. Confirmation is terminal per
// (rule, series).
func (d *Detector) runRule(rule Rule, series *telemetry.Series) *Event {
	windowSize := rule.Window
	if windowSize < 2 {
		windowSize = 2
	}
	window := ringbuffer.NewRingP[telemetry.Sample](nextPowerOf2(windowSize))
	windowLen := 0
	count := 0
	evidence := []telemetry.Sample{}
	for _, s := range series.Valid() {
		window.Add(s)
		if windowLen < windowSize {
			windowLen++
		}
		if d.triggered(rule, window, windowLen, s) {
			count++
			evidence = append(evidence, s)
			if count >= rule.Debounce {
				return d.confirm(rule, series, evidence)
			}
		} else {
			count = 0
			evidence = evidence[:0]
		}
	}
	return nil
}

func (d *Detector) triggered(rule Rule, window ringbuffer.RingP[telemetry.Sample], windowLen int, s telemetry.Sample) bool {
	switch rule.Trigger {
	case TriggerAbove:
		return s.Value.Float() >= rule.Threshold
	case TriggerBelow:
		return s.Value.Float() < rule.Threshold
	case TriggerRising, TriggerFalling:
		if windowLen < 2 {
			return false
		}
		oldest := window.Peek(window.Len() - windowLen)
		newest := window.Peek(window.Len() - 1)
		dt := float64(newest.FrameIndex-oldest.FrameIndex) / d.frameRate
		if dt <= 0 {
			return false
		}
		slope := (newest.Value.Float() - oldest.Value.Float()) / dt
		if rule.Trigger == TriggerRising {
			return slope >= rule.Threshold
		}
		return slope <= -rule.Threshold
	}
	return false
}

func (d *Detector) confirm(rule Rule, series *telemetry.Series, evidence []telemetry.Sample) *Event {
	ev := &Event{
		Kind:       rule.Kind,
		Vehicle:    series.Vehicle,
		FirstFrame: evidence[0].FrameIndex,
		LastFrame:  evidence[len(evidence)-1].FrameIndex,
		Evidence:   append([]telemetry.Sample{}, evidence...),
	}
	sum := float32(0)
	for _, s := range evidence {
		sum += s.Confidence
	}
	ev.Confidence = sum / float32(len(evidence))
	return ev
}

// merge collapses same-kind, same-vehicle confirmations whose windows fall
// within mergeWindowFrames of each other. Two rules can agree on the same
// milestone; the viewer wants it once.
func (d *Detector) merge(events []Event) []Event {
	sort.Slice(events, func(i, j int) bool { return events[i].FirstFrame < events[j].FirstFrame })
	merged := []Event{}
	for _, ev := range events {
		absorbed := false
		for i := range merged {
			m := &merged[i]
			if m.Kind != ev.Kind || m.Vehicle != ev.Vehicle {
				continue
			}
			if ev.FirstFrame-m.LastFrame <= d.mergeWindowFrames {
				if ev.LastFrame > m.LastFrame {
					m.LastFrame = ev.LastFrame
				}
				if ev.Confidence > m.Confidence {
					m.Confidence = ev.Confidence
				}
				m.Evidence = append(m.Evidence, ev.Evidence...)
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, ev)
		}
	}
	return merged
}

// annotateCrossVehicle records, on each event, the other vehicles whose
// same-kind event confirmed within the merge window.
func (d *Detector) annotateCrossVehicle(events []Event) {
	for i := range events {
		for j := range events {
			if i == j || events[i].Kind != events[j].Kind || events[i].Vehicle == events[j].Vehicle {
				continue
			}
			if gen.Abs(events[i].FirstFrame-events[j].FirstFrame) <= d.mergeWindowFrames {
				events[i].AlsoSeen = append(events[i].AlsoSeen, events[j].Vehicle)
			}
		}
		sort.Strings(events[i].AlsoSeen)
	}
}

func nextPowerOf2(v int) int {
	p := 1
	for p < v {
		p *= 2
	}
	return p
}

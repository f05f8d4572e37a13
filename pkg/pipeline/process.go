package pipeline

import (
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/stagewatch/stagewatch/pkg/extract"
	"github.com/stagewatch/stagewatch/pkg/perfstats"
	"github.com/stagewatch/stagewatch/pkg/roicfg"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
	"github.com/stagewatch/stagewatch/pkg/video"
)

// readRegion crops one OCR-backed ROI out of the frame, runs the reader on
// it, and appends the parsed sample. Crop failures become invalid samples,
// not errors: one bad frame must never stop the run.
func (r *runner) readRegion(frame *video.Frame, roi *roicfg.RoiDef) {
	var crop *cimg.Image
	var err error
	if roi.IsRect() {
		crop, err = extract.Rect(frame.Image, roi.Rect())
	} else {
		// A measured ROI with point geometry reads the first group's
		// polygon, masked down to its interior.
		crop, err = extract.Polygon(frame.Image, roi.Points[roi.GroupNames()[0]])
	}
	if err != nil {
		r.log.Warnf("Frame %v, ROI %v: %v", frame.Index, roi.ID, err)
		r.appendFailure(frame, roi, roi.ID, telemetry.ReasonGeometry)
		return
	}

	start := time.Now()
	read := r.reader.ReadText(crop)
	perfstats.UpdateMovingAverage(&r.avgOcrNS, time.Since(start).Nanoseconds())

	spec := r.specs[specKey{roi.Vehicle, roi.ID}]
	value, reason := spec.Parse(read.Text, read.Confidence)
	r.asm.Append(telemetry.Sample{
		Vehicle:    roi.Vehicle,
		Field:      roi.ID,
		FrameIndex: frame.Index,
		Value:      value,
		Valid:      reason == telemetry.ReasonNone,
		Reason:     reason,
		Confidence: read.Confidence,
		RawText:    read.Text,
	})
}

// countLitGroups samples the luminance of each point group of an indicator
// ROI (engine clusters), emitting one count per group plus a total under
// the ROI's own id.
func (r *runner) countLitGroups(frame *video.Frame, roi *roicfg.RoiDef) {
	total := 0
	failed := false
	for _, name := range roi.GroupNames() {
		count, err := extract.LitPoints(frame.Image, roi.Points[name], r.options.EngineLitThreshold)
		if err != nil {
			r.log.Warnf("Frame %v, ROI %v group %v: %v", frame.Index, roi.ID, name, err)
			r.appendFailure(frame, roi, roi.ID+"."+name, telemetry.ReasonGeometry)
			failed = true
			continue
		}
		total += count
		r.asm.Append(telemetry.Sample{
			Vehicle:    roi.Vehicle,
			Field:      roi.ID + "." + name,
			FrameIndex: frame.Index,
			Value:      telemetry.NumberValue(float64(count), ""),
			Valid:      true,
			Confidence: 1,
		})
	}
	if !failed {
		r.asm.Append(telemetry.Sample{
			Vehicle:    roi.Vehicle,
			Field:      roi.ID,
			FrameIndex: frame.Index,
			Value:      telemetry.NumberValue(float64(total), ""),
			Valid:      true,
			Confidence: 1,
		})
	}
}

func (r *runner) appendFailure(frame *video.Frame, roi *roicfg.RoiDef, field string, reason telemetry.InvalidReason) {
	r.asm.Append(telemetry.Sample{
		Vehicle:    roi.Vehicle,
		Field:      field,
		FrameIndex: frame.Index,
		Valid:      false,
		Reason:     reason,
	})
}

// deriveMotion appends acceleration and g-force series for every speed
// series in the set.
func (r *runner) deriveMotion(set *telemetry.SeriesSet, frameRate float64) {
	derived := []*telemetry.Series{}
	for _, series := range set.Series {
		if series.Unit != telemetry.UnitKmh {
			continue
		}
		accel, gforce := telemetry.DeriveAcceleration(series, frameRate, r.options.Derive)
		if accel != nil {
			derived = append(derived, accel, gforce)
		}
	}
	set.Series = append(set.Series, derived...)
}

package telemetry

import (
	"github.com/stagewatch/stagewatch/pkg/gen"
)

// Standard gravity, for the g-force series.
const gravity = 9.81

// DeriveOptions controls acceleration derivation from a speed series.
type DeriveOptions struct {
	// Minimum frame distance between the two speed samples used for each
	// acceleration estimate. Larger distances smooth OCR jitter.
	FrameDistance int64
	// Estimates above this magnitude (m/s²) are discarded as misreads.
	MaxAcceleration float64
}

func DefaultDeriveOptions() DeriveOptions {
	return DeriveOptions{
		FrameDistance:   30,
		MaxAcceleration: 100,
	}
}

// DeriveAcceleration computes acceleration (m/s²) and g-force series from a
// speed series in km/h. Each estimate pairs a valid sample with the first
// valid sample at least FrameDistance frames later. Returns nil when the
// frame rate is unknown or the series is too sparse.
func DeriveAcceleration(speed *Series, frameRate float64, options DeriveOptions) (accel, gforce *Series) {
	if frameRate <= 0 {
		return nil, nil
	}
	valid := speed.Valid()
	if len(valid) < 2 {
		return nil, nil
	}
	accel = &Series{Vehicle: speed.Vehicle, Field: "acceleration", Unit: "m/s²"}
	gforce = &Series{Vehicle: speed.Vehicle, Field: "gforce", Unit: "g"}
	next := 1
	for i := 0; i < len(valid); i++ {
		if next <= i {
			next = i + 1
		}
		for next < len(valid) && valid[next].FrameIndex-valid[i].FrameIndex < options.FrameDistance {
			next++
		}
		if next >= len(valid) {
			break
		}
		a, b := valid[i], valid[next]
		dt := float64(b.FrameIndex-a.FrameIndex) / frameRate
		dv := (b.Value.Float() - a.Value.Float()) / 3.6 // km/h to m/s
		estimate := dv / dt
		if gen.Abs(estimate) > options.MaxAcceleration {
			continue
		}
		confidence := a.Confidence
		if b.Confidence < confidence {
			confidence = b.Confidence
		}
		accel.Samples = append(accel.Samples, Sample{
			Vehicle:    speed.Vehicle,
			Field:      accel.Field,
			FrameIndex: a.FrameIndex,
			Value:      NumberValue(estimate, accel.Unit),
			Valid:      true,
			Confidence: confidence,
		})
		gforce.Samples = append(gforce.Samples, Sample{
			Vehicle:    speed.Vehicle,
			Field:      gforce.Field,
			FrameIndex: a.FrameIndex,
			Value:      NumberValue(estimate/gravity, gforce.Unit),
			Valid:      true,
			Confidence: confidence,
		})
	}
	if len(accel.Samples) == 0 {
		return nil, nil
	}
	return accel, gforce
}

package roicfg

// Schedule resolves which ROIs are active at a given frame.
// Activation windows are inclusive at both ends, and a nil bound means
// unbounded on that side.
type Schedule struct {
	cfg       *Config
	frameRate float64 // only needed when the config's time unit is seconds
}

// NewSchedule binds a validated config to the source's frame rate.
// When the config expresses activation windows in seconds, the frame rate
// must be known up front; we never assume a default.
func NewSchedule(cfg *Config, frameRate float64) (*Schedule, error) {
	if cfg.TimeUnit == TimeUnitSeconds && frameRate <= 0 {
		return nil, configErrorf("time_unit", "Config uses seconds but the video source did not report a frame rate")
	}
	return &Schedule{
		cfg:       cfg,
		frameRate: frameRate,
	}, nil
}

// Position converts a frame index into the config's time unit.
func (s *Schedule) Position(frameIndex int64) float64 {
	if s.cfg.TimeUnit == TimeUnitSeconds {
		return float64(frameIndex) / s.frameRate
	}
	return float64(frameIndex)
}

// ActiveAt returns the ROIs whose activation window contains frameIndex.
func (s *Schedule) ActiveAt(frameIndex int64) []*RoiDef {
	pos := s.Position(frameIndex)
	active := []*RoiDef{}
	for _, roi := range s.cfg.Rois {
		if roi.StartTime != nil && pos < *roi.StartTime {
			continue
		}
		if roi.EndTime != nil && pos > *roi.EndTime {
			continue
		}
		active = append(active, roi)
	}
	return active
}

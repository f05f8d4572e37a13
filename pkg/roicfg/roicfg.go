// Package roicfg loads and validates the ROI configuration for one recording.
// A successful load returns an immutable snapshot; everything downstream
// assumes validity and performs no redundant checks.
package roicfg

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/stagewatch/stagewatch/pkg/geom"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
)

type TimeUnit string

const (
	TimeUnitFrames  TimeUnit = "frames"
	TimeUnitSeconds TimeUnit = "seconds"
)

// Measurement says how a ROI's raw OCR text is interpreted
type Measurement int

const (
	MeasureNone    Measurement = iota // no OCR (e.g. engine point groups)
	MeasureUnit                       // decimal magnitude in a physical unit
	MeasurePattern                    // text matching a regular expression (e.g. mission clock)
)

// ConfigError is a fatal, pre-run error in the ROI configuration.
type ConfigError struct {
	Field   string // config element that failed validation (eg "rois[3].w")
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%v: %v", e.Field, e.Message)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type VideoSource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// RoiDef describes one region of interest. Geometry is either a rectangle
// or a set of named point groups (used for engine clusters and similar
// non-rectangular overlays).
type RoiDef struct {
	ID              string                  `json:"id"`
	Vehicle         string                  `json:"vehicle,omitempty"` // empty = scene-global
	Label           string                  `json:"label"`
	X               int                     `json:"x"`
	Y               int                     `json:"y"`
	W               int                     `json:"w"`
	H               int                     `json:"h"`
	Points          map[string]geom.Polygon `json:"points,omitempty"`
	StartTime       *float64                `json:"start_time"` // in the config's TimeUnit. nil = unbounded
	EndTime         *float64                `json:"end_time"`
	MeasurementUnit string                  `json:"measurement_unit"`

	measure Measurement
	pattern *regexp.Regexp
}

// IsRect is true for rectangle geometry, false for point groups.
func (r *RoiDef) IsRect() bool {
	return len(r.Points) == 0
}

func (r *RoiDef) Rect() geom.Rect {
	return geom.Rect{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
}

func (r *RoiDef) Measure() Measurement {
	return r.measure
}

// Pattern returns the compiled expected-text pattern.
// Only non-nil when Measure() == MeasurePattern.
func (r *RoiDef) Pattern() *regexp.Regexp {
	return r.pattern
}

// GroupNames returns the point group names in a stable order.
func (r *RoiDef) GroupNames() []string {
	names := make([]string, 0, len(r.Points))
	for name := range r.Points {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Config struct {
	Version     int         `json:"version"`
	VideoSource VideoSource `json:"video_source"`
	TimeUnit    TimeUnit    `json:"time_unit"`
	Vehicles    []string    `json:"vehicles"`
	Rois        []*RoiDef   `json:"rois"`
}

// Load reads and validates a ROI configuration file.
func Load(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("Failed to read config: %v", err)}
	}
	return Parse(raw)
}

// Parse validates a ROI configuration from raw JSON.
// Unknown fields (such as the legacy 'match_to_role') are ignored.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("Invalid config JSON: %v", err)}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// The version field is bumped on every save by the authoring tool, so we
	// only reject versions that no tool could have written.
	if c.Version < 1 {
		return configErrorf("version", "Unsupported config version %v", c.Version)
	}
	if c.TimeUnit != TimeUnitFrames && c.TimeUnit != TimeUnitSeconds {
		return configErrorf("time_unit", "Must be 'frames' or 'seconds', not '%v'", c.TimeUnit)
	}
	vehicles := map[string]bool{}
	for _, v := range c.Vehicles {
		if v == "" {
			return configErrorf("vehicles", "Vehicle name may not be empty")
		}
		vehicles[v] = true
	}
	seen := map[string]bool{}
	for i, roi := range c.Rois {
		field := func(name string) string { return fmt.Sprintf("rois[%v].%v", i, name) }
		if roi.ID == "" {
			return configErrorf(field("id"), "Missing ROI id")
		}
		if roi.Vehicle != "" && !vehicles[roi.Vehicle] {
			return configErrorf(field("vehicle"), "Vehicle '%v' is not listed in vehicles", roi.Vehicle)
		}
		if roi.IsRect() {
			if roi.W <= 0 || roi.H <= 0 {
				return configErrorf(field("w"), "Rectangle must have positive width and height (got %vx%v)", roi.W, roi.H)
			}
			if roi.X < 0 || roi.Y < 0 {
				return configErrorf(field("x"), "Rectangle origin may not be negative")
			}
		} else {
			for name, poly := range roi.Points {
				if len(poly) == 0 {
					return configErrorf(field("points."+name), "Point group is empty")
				}
			}
		}
		if roi.StartTime != nil && roi.EndTime != nil && *roi.StartTime >= *roi.EndTime {
			return configErrorf(field("start_time"), "start_time %v must be before end_time %v", *roi.StartTime, *roi.EndTime)
		}
		if err := roi.resolveMeasurement(field("measurement_unit")); err != nil {
			return err
		}
		// The same id may appear again with a different vehicle or activation
		// window (eg the overlay moves between flight phases). An exact
		// duplicate is a mistake.
		key := fmt.Sprintf("%v|%v|%v|%v", roi.ID, roi.Vehicle, timePtr(roi.StartTime), timePtr(roi.EndTime))
		if seen[key] {
			return configErrorf(field("id"), "Duplicate ROI '%v' for the same vehicle and time window", roi.ID)
		}
		seen[key] = true
	}
	return nil
}

func (r *RoiDef) resolveMeasurement(field string) error {
	if r.MeasurementUnit == "" {
		if r.IsRect() {
			return configErrorf(field, "Rectangle ROI '%v' requires a measurement unit or pattern", r.ID)
		}
		r.measure = MeasureNone
		return nil
	}
	if telemetry.IsKnownUnit(r.MeasurementUnit) {
		r.measure = MeasureUnit
		return nil
	}
	// Not a physical unit, so it must be an expected-text pattern.
	pattern, err := regexp.Compile("^(?:" + r.MeasurementUnit + ")$")
	if err != nil {
		return configErrorf(field, "'%v' is neither a known unit nor a valid pattern: %v", r.MeasurementUnit, err)
	}
	r.measure = MeasurePattern
	r.pattern = pattern
	return nil
}

func timePtr(t *float64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%v", *t)
}

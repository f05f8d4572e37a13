package roicfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseConfig() string {
	return `{
		"version": 3,
		"video_source": {"type": "file", "url": "launch.mp4"},
		"time_unit": "frames",
		"vehicles": ["superheavy", "starship"],
		"rois": [
			{"id": "speed", "vehicle": "starship", "label": "Speed", "x": 100, "y": 200, "w": 80, "h": 24, "start_time": 100, "end_time": 200, "measurement_unit": "km/h"},
			{"id": "altitude", "vehicle": "starship", "label": "Altitude", "x": 100, "y": 230, "w": 80, "h": 24, "start_time": null, "end_time": null, "measurement_unit": "km"},
			{"id": "time", "label": "Mission clock", "x": 600, "y": 40, "w": 140, "h": 30, "start_time": null, "end_time": null, "measurement_unit": "[+-]\\d{2}:\\d{2}:\\d{2}"},
			{"id": "engines", "vehicle": "superheavy", "label": "Engines", "points": {"inner_ring": [{"x": 10, "y": 10}, {"x": 12, "y": 10}]}, "start_time": 0, "end_time": 500, "measurement_unit": ""}
		]
	}`
}

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(baseConfig()))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Version)
	require.Equal(t, TimeUnitFrames, cfg.TimeUnit)
	require.Len(t, cfg.Rois, 4)

	speed := cfg.Rois[0]
	require.Equal(t, MeasureUnit, speed.Measure())
	require.True(t, speed.IsRect())

	clock := cfg.Rois[2]
	require.Equal(t, MeasurePattern, clock.Measure())
	require.True(t, clock.Pattern().MatchString("+00:01:23"))
	require.False(t, clock.Pattern().MatchString("T-12:34"))

	engines := cfg.Rois[3]
	require.Equal(t, MeasureNone, engines.Measure())
	require.False(t, engines.IsRect())
	require.Equal(t, []string{"inner_ring"}, engines.GroupNames())
}

func TestParseIgnoresLegacyFields(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"version": 1,
		"video_source": {"type": "file", "url": "v.mp4"},
		"time_unit": "frames",
		"vehicles": ["starship"],
		"match_to_role": "old-field",
		"rois": [
			{"id": "speed", "vehicle": "starship", "label": "Speed", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": null, "end_time": null, "measurement_unit": "km/h", "match_to_role": "x"}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, cfg.Rois, 1)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"bad version", `{"version": 0, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": []}`},
		{"bad time unit", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "minutes", "vehicles": [], "rois": []}`},
		{"missing id", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": [
			{"vehicle": "", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": null, "end_time": null, "measurement_unit": "km/h"}]}`},
		{"zero width", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": [
			{"id": "speed", "label": "", "x": 0, "y": 0, "w": 0, "h": 10, "start_time": null, "end_time": null, "measurement_unit": "km/h"}]}`},
		{"unknown vehicle", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": ["starship"], "rois": [
			{"id": "speed", "vehicle": "booster", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": null, "end_time": null, "measurement_unit": "km/h"}]}`},
		{"inverted window", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": [
			{"id": "speed", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": 200, "end_time": 100, "measurement_unit": "km/h"}]}`},
		{"bad pattern", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": [
			{"id": "time", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": null, "end_time": null, "measurement_unit": "[unclosed"}]}`},
		{"exact duplicate", `{"version": 1, "video_source": {"type": "file", "url": ""}, "time_unit": "frames", "vehicles": [], "rois": [
			{"id": "speed", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": 1, "end_time": 2, "measurement_unit": "km/h"},
			{"id": "speed", "label": "", "x": 5, "y": 5, "w": 10, "h": 10, "start_time": 1, "end_time": 2, "measurement_unit": "km/h"}]}`},
	}
	for _, c := range cases {
		_, err := Parse([]byte(c.json))
		require.Error(t, err, c.name)
		require.IsType(t, &ConfigError{}, err, c.name)
	}
}

func TestIdReuseAcrossWindowsIsAllowed(t *testing.T) {
	_, err := Parse([]byte(`{
		"version": 1,
		"video_source": {"type": "file", "url": ""},
		"time_unit": "frames",
		"vehicles": ["superheavy", "starship"],
		"rois": [
			{"id": "speed", "vehicle": "superheavy", "label": "", "x": 0, "y": 0, "w": 10, "h": 10, "start_time": 0, "end_time": 300, "measurement_unit": "km/h"},
			{"id": "speed", "vehicle": "starship", "label": "", "x": 50, "y": 0, "w": 10, "h": 10, "start_time": 0, "end_time": 300, "measurement_unit": "km/h"},
			{"id": "speed", "vehicle": "starship", "label": "", "x": 80, "y": 0, "w": 10, "h": 10, "start_time": 301, "end_time": null, "measurement_unit": "km/h"}
		]
	}`))
	require.NoError(t, err)
}

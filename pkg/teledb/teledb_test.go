package teledb

import (
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stagewatch/stagewatch/pkg/flightevents"
	"github.com/stagewatch/stagewatch/pkg/pipeline"
	"github.com/stagewatch/stagewatch/pkg/telemetry"
	"github.com/stretchr/testify/require"
)

func testResult() *pipeline.Result {
	speed := &telemetry.Series{Vehicle: "ship", Field: "speed", Unit: "km/h"}
	for i := int64(0); i < 5; i++ {
		speed.Samples = append(speed.Samples, telemetry.Sample{
			Vehicle:    "ship",
			Field:      "speed",
			FrameIndex: i * 30,
			Value:      telemetry.NumberValue(float64(i)*100, "km/h"),
			Valid:      true,
			Confidence: 0.9,
			RawText:    "raw",
		})
	}
	speed.Samples[2].Valid = false
	speed.Samples[2].Reason = telemetry.ReasonUnparsable

	clock := &telemetry.Series{Vehicle: "", Field: "clock"}
	clock.Samples = append(clock.Samples, telemetry.Sample{
		Field:      "clock",
		FrameIndex: 0,
		Value:      telemetry.ClockValue(-10),
		Valid:      true,
		Confidence: 0.8,
	})

	return &pipeline.Result{
		Series: &telemetry.SeriesSet{Series: []*telemetry.Series{clock, speed}},
		Events: []flightevents.Event{
			{
				Kind:       flightevents.KindLiftoff,
				Vehicle:    "ship",
				FirstFrame: 30,
				LastFrame:  90,
				Confidence: 0.9,
				Evidence:   speed.Samples[1:4],
				AlsoSeen:   []string{"booster"},
			},
		},
		Diagnostics: pipeline.Diagnostics{
			FramesSampled: 5,
			Observations:  6,
			InvalidByReason: map[telemetry.InvalidReason]int64{
				telemetry.ReasonUnparsable: 1,
			},
			Conflicts: 0,
		},
		Completed: true,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	db, err := Open(logs.NewTestingLog(t), filepath.Join(t.TempDir(), "telemetry.sqlite"))
	require.NoError(t, err)

	runID, err := db.SaveRun(testResult(), "launch.mp4", 3)
	require.NoError(t, err)
	require.NotZero(t, runID)

	run, err := db.GetRun(runID)
	require.NoError(t, err)
	require.Equal(t, "launch.mp4", run.VideoURL)
	require.Equal(t, 3, run.ConfigVersion)
	require.True(t, run.Completed)
	require.Equal(t, int64(5), run.Diagnostics.Data.FramesSampled)
	require.Equal(t, int64(1), run.Diagnostics.Data.InvalidByReason["unparsable"])

	samples, err := db.ListSamples(runID, "ship", "speed")
	require.NoError(t, err)
	require.Len(t, samples, 5)
	require.Equal(t, 100.0, samples[1].Value)
	require.Equal(t, "km/h", samples[1].Unit)
	require.False(t, samples[2].Valid)
	require.Equal(t, "unparsable", samples[2].Reason)

	all, err := db.ListSamples(runID, "", "")
	require.NoError(t, err)
	require.Len(t, all, 6)

	clocks, err := db.ListSamples(runID, "", "clock")
	require.NoError(t, err)
	require.Len(t, clocks, 1)
	require.Equal(t, "-00:00:10", clocks[0].Clock)
	require.Equal(t, -10.0, clocks[0].Value)

	events, err := db.ListEvents(runID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "liftoff", events[0].Kind)
	require.Equal(t, []string{"booster"}, events[0].Detail.Data.AlsoSeen)
	require.Equal(t, []int64{30, 60, 90}, events[0].Detail.Data.EvidenceFrames)

	// A second run does not disturb the first.
	runID2, err := db.SaveRun(testResult(), "launch2.mp4", 4)
	require.NoError(t, err)
	require.NotEqual(t, runID, runID2)
	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

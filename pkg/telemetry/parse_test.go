package telemetry

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeGlyphs(t *testing.T) {
	require.Equal(t, "1234", NormalizeGlyphs("l234"))
	require.Equal(t, "10050", NormalizeGlyphs(" 1O,O5O "))
	require.Equal(t, "85", NormalizeGlyphs("8S"))
	require.Equal(t, "121", NormalizeGlyphs("IZl"))
}

func TestParseClock(t *testing.T) {
	seconds, ok := ParseClock("+00:01:23")
	require.True(t, ok)
	require.Equal(t, int64(83), seconds)

	seconds, ok = ParseClock("-00:00:10")
	require.True(t, ok)
	require.Equal(t, int64(-10), seconds)

	seconds, ok = ParseClock("+01:02:03")
	require.True(t, ok)
	require.Equal(t, int64(3723), seconds)

	// Canonical rendering round-trips.
	require.Equal(t, "+00:01:23", ClockValue(83).String())
	require.Equal(t, "-00:00:10", ClockValue(-10).String())
	require.Equal(t, "+01:02:03", ClockValue(3723).String())

	_, ok = ParseClock("T-12:34")
	require.False(t, ok)
	_, ok = ParseClock("+00:71:23")
	require.False(t, ok)
}

func TestParseUnitField(t *testing.T) {
	spec := &FieldSpec{
		Unit:          "km/h",
		MinValue:      0,
		MaxValue:      30000,
		MinConfidence: 0.3,
	}

	v, reason := spec.Parse("12345", 0.9)
	require.Equal(t, ReasonNone, reason)
	require.Equal(t, ValueNumber, v.Kind)
	require.Equal(t, 12345.0, v.Number)
	require.Equal(t, "km/h", v.Unit)

	// Glyph confusion is repaired before numeric parse.
	v, reason = spec.Parse("l234", 0.9)
	require.Equal(t, ReasonNone, reason)
	require.Equal(t, 1234.0, v.Number)

	// A trailing unit label caught by the crop is tolerated.
	v, reason = spec.Parse("500km/h", 0.9)
	require.Equal(t, ReasonNone, reason)
	require.Equal(t, 500.0, v.Number)

	// Parsable but below the confidence floor.
	v, reason = spec.Parse("1234", 0.1)
	require.Equal(t, ReasonLowConfidence, reason)
	require.Equal(t, 1234.0, v.Number)

	// Outside the plausibility bounds.
	_, reason = spec.Parse("99999", 0.9)
	require.Equal(t, ReasonImplausibleJump, reason)

	// Nothing numeric to extract.
	_, reason = spec.Parse("", 0.9)
	require.Equal(t, ReasonUnparsable, reason)
	_, reason = spec.Parse("--", 0.9)
	require.Equal(t, ReasonUnparsable, reason)
}

func TestParseUnitConversion(t *testing.T) {
	mph := &FieldSpec{Unit: "mph"}
	v, reason := mph.Parse("100", 1)
	require.Equal(t, ReasonNone, reason)
	require.InDelta(t, 160.934, v.Number, 0.001)
	require.Equal(t, "km/h", v.Unit)

	feet := &FieldSpec{Unit: "ft"}
	v, reason = feet.Parse("10000", 1)
	require.Equal(t, ReasonNone, reason)
	require.InDelta(t, 3.048, v.Number, 0.001)
	require.Equal(t, "km", v.Unit)
}

func TestParsePatternField(t *testing.T) {
	spec := &FieldSpec{
		Pattern:       regexp.MustCompile(`^[+-]\d{2}:\d{2}:\d{2}$`),
		MinConfidence: 0.3,
	}

	v, reason := spec.Parse("+00:01:23", 0.9)
	require.Equal(t, ReasonNone, reason)
	require.Equal(t, ValueClock, v.Kind)
	require.Equal(t, int64(83), v.ClockSeconds)

	// The broadcast overlay's prelaunch hold text must not slip through.
	_, reason = spec.Parse("T-12:34", 0.9)
	require.Equal(t, ReasonPatternMismatch, reason)

	_, reason = spec.Parse("", 0.9)
	require.Equal(t, ReasonPatternMismatch, reason)

	v, reason = spec.Parse("+00:01:23", 0.1)
	require.Equal(t, ReasonLowConfidence, reason)
	require.Equal(t, int64(83), v.ClockSeconds)
}

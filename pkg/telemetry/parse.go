package telemetry

import (
	"regexp"
	"strconv"
	"strings"
)

// Broadcast overlay fonts make Tesseract confuse digits with letters.
// These swaps are safe because telemetry fields are purely numeric.
var glyphFixes = strings.NewReplacer(
	"O", "0", "o", "0", "D", "0", "Q", "0",
	"l", "1", "I", "1", "|", "1",
	"Z", "2", "z", "2",
	"S", "5", "s", "5",
	"B", "8",
	"G", "6",
	"g", "9", "q", "9",
)

var numberRe = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
var clockRe = regexp.MustCompile(`([+-])([0-9]{1,2}):([0-9]{2}):([0-9]{2})`)

// NormalizeGlyphs applies the digit confusion fixes and strips whitespace
// and thousands separators.
func NormalizeGlyphs(raw string) string {
	s := glyphFixes.Replace(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// ParseClock reads a signed mission clock (e.g. "+00:01:23" or "-00:00:10")
// and returns it as signed seconds relative to T-0.
func ParseClock(text string) (int64, bool) {
	m := clockRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	hh, _ := strconv.ParseInt(m[2], 10, 64)
	mm, _ := strconv.ParseInt(m[3], 10, 64)
	ss, _ := strconv.ParseInt(m[4], 10, 64)
	if mm >= 60 || ss >= 60 {
		return 0, false
	}
	seconds := hh*3600 + mm*60 + ss
	if m[1] == "-" {
		seconds = -seconds
	}
	return seconds, true
}

// FieldSpec tells the parser how to interpret one field's raw OCR text.
// Exactly one of Pattern and Unit drives interpretation: a pattern field
// must match Pattern in full, a unit field is parsed as a decimal magnitude
// in Unit and converted to the canonical unit.
type FieldSpec struct {
	Pattern *regexp.Regexp // full-match validator for text fields (mission clock)
	Unit    string         // source unit for numeric fields

	// Plausibility bounds in canonical units. Disabled when Min == Max == 0.
	MinValue float64
	MaxValue float64

	// Largest believable change between consecutive valid samples, in
	// canonical units. 0 disables the check.
	MaxStepDelta float64

	// Samples below this OCR confidence are flagged lowConfidence even
	// when they parse cleanly.
	MinConfidence float32
}

// Parse interprets one raw OCR reading. It always returns a value when one
// could be extracted, so that invalid samples still show what was read.
// Step-delta plausibility is applied later, once samples are in frame order.
func (spec *FieldSpec) Parse(raw string, confidence float32) (Value, InvalidReason) {
	if spec.Pattern != nil {
		return spec.parsePattern(raw, confidence)
	}
	return spec.parseNumber(raw, confidence)
}

func (spec *FieldSpec) parsePattern(raw string, confidence float32) (Value, InvalidReason) {
	text := strings.TrimSpace(raw)
	if !spec.Pattern.MatchString(text) {
		return Value{}, ReasonPatternMismatch
	}
	seconds, ok := ParseClock(text)
	if !ok {
		return Value{}, ReasonUnparsable
	}
	v := ClockValue(seconds)
	if confidence < spec.MinConfidence {
		return v, ReasonLowConfidence
	}
	return v, ReasonNone
}

func (spec *FieldSpec) parseNumber(raw string, confidence float32) (Value, InvalidReason) {
	text := NormalizeGlyphs(raw)
	// Drop a trailing unit label if the crop caught one ("12345km/h").
	text = strings.TrimSuffix(text, spec.Unit)
	if text == "" || !numberRe.MatchString(text) {
		return Value{}, ReasonUnparsable
	}
	magnitude, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, ReasonUnparsable
	}
	canonical, err := ConvertToCanonical(magnitude, spec.Unit)
	if err != nil {
		return Value{}, ReasonUnparsable
	}
	v := NumberValue(canonical, CanonicalUnit(spec.Unit))
	if spec.MinValue != spec.MaxValue && (canonical < spec.MinValue || canonical > spec.MaxValue) {
		return v, ReasonImplausibleJump
	}
	if confidence < spec.MinConfidence {
		return v, ReasonLowConfidence
	}
	return v, ReasonNone
}

package telemetry

import "fmt"

// Canonical units are km/h for speed and km for altitude. Webcast overlays
// sometimes show imperial units, so each known source unit carries a factor
// into its canonical unit.
const (
	UnitKmh = "km/h"
	UnitKm  = "km"
)

type unitDef struct {
	canonical string
	factor    float64
}

var knownUnits = map[string]unitDef{
	"km/h": {UnitKmh, 1},
	"mph":  {UnitKmh, 1.60934},
	"m/s":  {UnitKmh, 3.6},
	"km":   {UnitKm, 1},
	"mi":   {UnitKm, 1.60934},
	"ft":   {UnitKm, 0.0003048},
	"m":    {UnitKm, 0.001},
}

// IsKnownUnit is true if unit is a physical unit that we can convert to a
// canonical unit. Anything else in a measurement_unit field is treated as a
// text pattern.
func IsKnownUnit(unit string) bool {
	_, ok := knownUnits[unit]
	return ok
}

// CanonicalUnit returns the canonical unit that 'unit' converts into.
func CanonicalUnit(unit string) string {
	return knownUnits[unit].canonical
}

// ConvertToCanonical converts a magnitude in 'unit' to the canonical unit.
func ConvertToCanonical(value float64, unit string) (float64, error) {
	def, ok := knownUnits[unit]
	if !ok {
		return 0, fmt.Errorf("Unsupported measurement unit '%v'", unit)
	}
	return value * def.factor, nil
}

// Package calc holds the arithmetic behind the generated documents. Rates are
// illustrative flat percentages, not a tax engine.
package calc

import "math"

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

const (
	SocialSecurityRate = 0.062
	MedicareRate       = 0.0145
	OvertimeMultiplier = 1.5

	// SocialSecurityWageBase caps box 3 of a W-2.
	SocialSecurityWageBase = 168600.0
)

var stateTaxRates = map[string]float64{
	"AZ": 0.025,
	"CA": 0.06,
	"CO": 0.044,
	"FL": 0,
	"GA": 0.0549,
	"IL": 0.0495,
	"MA": 0.05,
	"NC": 0.0475,
	"NJ": 0.05,
	"NV": 0,
	"NY": 0.065,
	"OH": 0.035,
	"PA": 0.0307,
	"TN": 0,
	"TX": 0,
	"VA": 0.0575,
	"WA": 0,
}

// StateTaxRate is the flat rate for a two-letter state code; unknown states
// are untaxed.
func StateTaxRate(state string) float64 {
	return stateTaxRates[state]
}

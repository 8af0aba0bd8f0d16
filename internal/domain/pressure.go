package domain

import "math"

// Unit conversion and barometric constants for StationPressure. The formula
// follows the NWS station pressure calculator
// (https://www.weather.gov/epz/wxcalc_stationpressure).
const (
	hPaToInHg      = 0.029529983071445
	inHgToPa       = 3386.389
	standardTempK  = 288.0
	lapseRatePerM  = 0.0065
	barometricExpn = 5.2561
)

// StationPressure converts sea-level pressure, as reported by ISD-Lite in
// tenths of hectopascals, to atmospheric station pressure in pascals at the
// given elevation in meters. Callers are responsible for excluding missing
// sentinels; physically implausible inputs are not validated.
func StationPressure(seaLevelTenthsHPa, elevationM float64) float64 {
	seaLevelInHg := seaLevelTenthsHPa / 10 * hPaToInHg
	stationInHg := seaLevelInHg * math.Pow((standardTempK-lapseRatePerM*elevationM)/standardTempK, barometricExpn)
	return stationInHg * inHgToPa
}

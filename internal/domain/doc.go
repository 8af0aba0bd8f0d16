// Package domain implements the time-series completion and reconciliation
// core that turns a gappy year of hourly weather-station observations into a
// complete hourly series for one calendar year.
//
// # Data Source
//
// Raw observations come from NOAA ISD-Lite station-year files
// (https://www1.ncdc.noaa.gov/pub/data/noaa/isd-lite/): whitespace-delimited
// rows of year, month, day, hour and scaled measurement columns, where -9999
// marks a value that was not observed. Timestamps are GMT; hours the station
// never reported are simply absent from the file.
//
// # Reconciliation
//
// AlignToYear frames two adjacent years of raw rows onto the target year's
// continuous hourly index, shifting from GMT into the station's time zone.
// The following year contributes up to 24 hours so the shift does not leave
// empty hours on the evening of December 31.
//
// FillGaps then completes the series with a two-tier policy. Short runs of
// missing values are linearly interpolated between their nearest observed
// neighbors. Longer runs are imputed from the station's own recent behavior:
// each missing hour takes the mean of the same hour of day across the two
// weeks before and after. The first and last cells of an imputed run are left
// to the interpolation pass so imputed interiors blend into the surrounding
// observations. A run too long to impute rejects the station-year outright.
//
// StationPressure derives atmospheric station pressure from the completed
// sea-level pressure column and the station elevation.
//
// # Admission
//
// Analyze and Classify screen raw station-years before the expensive
// reconciliation runs, bucketing files by total missing rows and by the
// longest consecutive gap. Totals are measured against a fixed 8760-hour
// year; see FileAnalysis for the leap-year caveat.
package domain

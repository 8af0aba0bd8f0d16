package domain

import "fmt"

// GapTooLargeError reports a column whose longest run of missing values
// exceeds the imputation limit. The fill aborts for the whole series and the
// caller must discard it; retrying with identical thresholds reproduces the
// same failure deterministically.
type GapTooLargeError struct {
	Column    string
	RunLength int
	MaxImpute int
}

func (e *GapTooLargeError) Error() string {
	return fmt.Sprintf("column %s has a run of %d missing records, but the max allowed is %d",
		e.Column, e.RunLength, e.MaxImpute)
}

// EmptyImputationWindowError reports an imputation window in which every
// sampled offset was itself missing, leaving no values to average. Escalating
// is deliberate: silently widening the window or writing NaN would make fill
// results depend on gap geography in non-obvious ways.
type EmptyImputationWindowError struct {
	Column   string
	Position int
}

func (e *EmptyImputationWindowError) Error() string {
	return fmt.Sprintf("column %s has no valid samples in the imputation window around position %d",
		e.Column, e.Position)
}

// InsufficientLookaheadError reports that the raw file for the year following
// the target year could not be obtained, so alignment cannot cover the
// time-zone shift. Fatal to the (station, year) unit; not retried.
type InsufficientLookaheadError struct {
	WMOIndex int
	Year     int
	Err      error
}

func (e *InsufficientLookaheadError) Error() string {
	return fmt.Sprintf("no lookahead data for WMO %d year %d: %v", e.WMOIndex, e.Year, e.Err)
}

func (e *InsufficientLookaheadError) Unwrap() error {
	return e.Err
}

// DownloadNotAllowedError is returned when a required source file is not
// present locally and the caller has not permitted downloads.
type DownloadNotAllowedError struct {
	Path string
	URL  string
}

func (e *DownloadNotAllowedError) Error() string {
	return fmt.Sprintf("%s is not present; enable downloads to fetch it from %s", e.Path, e.URL)
}

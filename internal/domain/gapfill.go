package domain

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// FillOptions configures the two-tier gap-filling policy.
type FillOptions struct {
	// Columns to fill. Nil means every column in the series.
	Columns []string

	// MissingValues are sentinel values normalized to the absent marker
	// before filling (e.g. -9999). NaN cells are always treated as absent.
	MissingValues []float64

	// Step is the spacing between adjacent index positions. Defaults to one
	// hour; only its ratio to ImputeRange and ImputeStep matters.
	Step time.Duration

	// MaxInterpolate is the longest run of missing values filled by linear
	// interpolation. Longer runs, up to MaxImpute, are imputed instead.
	// Zero disables the interpolation tier entirely: runs are then imputed
	// whole, including their first and last cells, since no interpolation
	// pass exists to smooth toward.
	MaxInterpolate int

	// MaxImpute is the longest run of missing values the engine will fill at
	// all. A longer run aborts the fill with GapTooLargeError.
	MaxImpute int

	// ImputeRange is the distance searched on both sides of a missing cell
	// for values to average. Defaults to two weeks.
	ImputeRange time.Duration

	// ImputeStep is the stride between sampled offsets within ImputeRange.
	// Defaults to one day, so an hourly series samples the same hour of
	// nearby days.
	ImputeStep time.Duration
}

func (o FillOptions) withDefaults() FillOptions {
	if o.Step <= 0 {
		o.Step = time.Hour
	}
	if o.ImputeRange <= 0 {
		o.ImputeRange = 14 * 24 * time.Hour
	}
	if o.ImputeStep <= 0 {
		o.ImputeStep = 24 * time.Hour
	}
	return o
}

// FillStats counts the cells FillGaps completed, by tier, across every column
// it touched.
type FillStats struct {
	Interpolated int
	Imputed      int
}

func (s *FillStats) add(o FillStats) {
	s.Interpolated += o.Interpolated
	s.Imputed += o.Imputed
}

// FillGaps replaces missing values in the series, in place, one column at a
// time. Runs of missing values no longer than MaxInterpolate are linearly
// interpolated between their nearest valid neighbors. Longer runs, up to
// MaxImpute, have their interior imputed with the mean of same-offset samples
// every ImputeStep within ±ImputeRange; the run's first and last cells are
// left for the interpolation pass so the transition between imputed and
// observed values is smoothed. Any run longer than MaxImpute aborts the whole
// fill with GapTooLargeError before any cell has been imputed or
// interpolated; the caller must discard the series.
//
// Filling an already-complete series is a no-op. Columns are independent;
// within a column the imputation pass fully completes before interpolation
// runs, because interpolation relies on the imputed interior values no longer
// being absent.
func FillGaps(s *ObservationSeries, opts FillOptions) (FillStats, error) {
	opts = opts.withDefaults()

	columns := opts.Columns
	if columns == nil {
		columns = s.ColumnNames()
	}

	// Normalize every sentinel to the absent marker up front, then verify no
	// column has an unfillable run before mutating anything else. Failing
	// before the fill starts keeps the abort contract simple: no column is
	// ever observable in a partially imputed state.
	runsByColumn := make(map[string][][]int, len(columns))
	for _, name := range columns {
		col := s.Column(name)
		normalizeMissing(col, opts.MissingValues)

		runs := SplitContiguous(missingPositions(col), 1)
		if longest := longestRun(runs); longest > opts.MaxImpute {
			return FillStats{}, &GapTooLargeError{Column: name, RunLength: longest, MaxImpute: opts.MaxImpute}
		}
		runsByColumn[name] = runs
	}

	var stats FillStats
	for _, name := range columns {
		columnStats, err := fillColumn(s.Column(name), name, runsByColumn[name], opts)
		if err != nil {
			return FillStats{}, err
		}
		stats.add(columnStats)
	}
	return stats, nil
}

func fillColumn(col []float64, name string, runs [][]int, opts FillOptions) (FillStats, error) {
	rangeSteps := int(opts.ImputeRange / opts.Step)
	strideSteps := int(opts.ImputeStep / opts.Step)
	if strideSteps < 1 {
		strideSteps = 1
	}

	var stats FillStats

	for _, run := range runs {
		// Short runs are left for the interpolation pass below.
		if len(run) <= opts.MaxInterpolate {
			continue
		}

		interior := run
		if opts.MaxInterpolate > 0 {
			// Skip the run's first and last cells; interpolation blends them
			// between the observed neighbor and the imputed interior.
			interior = run[1 : len(run)-1]
		}

		for _, pos := range interior {
			v, ok := windowMean(col, pos, rangeSteps, strideSteps)
			if !ok {
				return FillStats{}, &EmptyImputationWindowError{Column: name, Position: pos}
			}
			col[pos] = v
			stats.Imputed++
		}
	}

	stats.Interpolated = interpolate(col)
	return stats, nil
}

// windowMean averages the column's values at every offset that is a multiple
// of stride within ±rangeSteps of pos, skipping offsets outside the index and
// absent samples. Reports false when the window holds no valid sample.
func windowMean(col []float64, pos, rangeSteps, stride int) (float64, bool) {
	var samples []float64
	for offset := pos - rangeSteps; offset <= pos+rangeSteps; offset += stride {
		if offset < 0 || offset >= len(col) {
			continue
		}
		if IsMissing(col[offset]) {
			continue
		}
		samples = append(samples, col[offset])
	}
	if len(samples) == 0 {
		return 0, false
	}
	return stat.Mean(samples, nil), true
}

// interpolate fills every remaining absent cell linearly, in position order,
// between the nearest valid neighbors on either side, returning the number of
// cells it filled. A gap touching the series edge clamps to its single valid
// neighbor; a column with no valid cell at all is left untouched.
func interpolate(col []float64) int {
	filled := 0
	i := 0
	for i < len(col) {
		if !IsMissing(col[i]) {
			i++
			continue
		}

		start := i
		for i < len(col) && IsMissing(col[i]) {
			i++
		}
		// col[start:i] is one gap; start-1 and i are its valid neighbors
		// when they are in bounds.
		switch {
		case start > 0 && i < len(col):
			lo, hi := col[start-1], col[i]
			span := float64(i - start + 1)
			for j := start; j < i; j++ {
				col[j] = lo + (hi-lo)*float64(j-start+1)/span
			}
		case start > 0:
			for j := start; j < i; j++ {
				col[j] = col[start-1]
			}
		case i < len(col):
			for j := start; j < i; j++ {
				col[j] = col[i]
			}
		default:
			continue
		}
		filled += i - start
	}
	return filled
}

func normalizeMissing(col []float64, sentinels []float64) {
	if len(sentinels) == 0 {
		return
	}
	for i, v := range col {
		for _, sentinel := range sentinels {
			if v == sentinel {
				col[i] = Missing
				break
			}
		}
	}
}

func missingPositions(col []float64) []int {
	var positions []int
	for i, v := range col {
		if IsMissing(v) {
			positions = append(positions, i)
		}
	}
	return positions
}

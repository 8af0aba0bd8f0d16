package epw

import (
	"fmt"
	"time"

	"github.com/couchcryptid/amy-epw-etl/internal/domain"
)

// feb29Offset is the row index of Feb 29 01:00 in a leap-year body: all of
// January plus 28 days of February.
const feb29Offset = (31 + 28) * 24

// leapDayMaxImpute keeps the inserted 24-hour run inside the imputation tier.
const leapDayMaxImpute = 24

// ExpandToLeapYear grows an 8760-row TMY template to the 8784 rows a leap
// target year needs. TMY files never carry a Feb 29, so one is synthesized: 24
// rows are inserted in calendar position with their date ordinals populated
// and every weather column absent, then completed by imputation from the same
// hour of nearby days. No interpolation tier is used, so the synthetic day
// never blends linearly across the midnight boundaries.
//
// A record that already has 8784 rows is left unchanged.
func (r *Record) ExpandToLeapYear() error {
	if r.Len() == hoursPerLeapYear {
		return nil
	}
	if r.Len() != hoursPerYear {
		return fmt.Errorf("cannot expand a %d-row record, want %d", r.Len(), hoursPerYear)
	}

	r.years = insertFeb29Ints(r.years)
	r.months = insertFeb29Ints(r.months)
	r.days = insertFeb29Ints(r.days)
	r.hours = insertFeb29Ints(r.hours)
	r.minutes = insertFeb29Ints(r.minutes)
	r.flags = insertFeb29Strings(r.flags)
	for hour := 0; hour < 24; hour++ {
		i := feb29Offset + hour
		r.months[i] = 2
		r.days[i] = 29
	}

	for name, col := range r.columns {
		grown := make([]float64, 0, hoursPerLeapYear)
		grown = append(grown, col[:feb29Offset]...)
		for hour := 0; hour < 24; hour++ {
			grown = append(grown, domain.Missing)
		}
		grown = append(grown, col[feb29Offset:]...)
		r.columns[name] = grown
	}

	s, err := domain.NewColumnSeries(ObservationColumns, r.columns)
	if err != nil {
		return fmt.Errorf("expand to leap year: %w", err)
	}
	_, err = domain.FillGaps(s, domain.FillOptions{
		Step:           time.Hour,
		MaxInterpolate: 0,
		MaxImpute:      leapDayMaxImpute,
	})
	if err != nil {
		return fmt.Errorf("fill synthetic leap day: %w", err)
	}
	return nil
}

// insertFeb29Ints copies the values of the preceding day, Feb 28, into the 24
// inserted slots so the year and minute ordinals stay plausible.
func insertFeb29Ints(vals []int) []int {
	grown := make([]int, 0, hoursPerLeapYear)
	grown = append(grown, vals[:feb29Offset]...)
	grown = append(grown, vals[feb29Offset-24:feb29Offset]...)
	return append(grown, vals[feb29Offset:]...)
}

func insertFeb29Strings(vals []string) []string {
	grown := make([]string, 0, hoursPerLeapYear)
	grown = append(grown, vals[:feb29Offset]...)
	grown = append(grown, vals[feb29Offset-24:feb29Offset]...)
	return append(grown, vals[feb29Offset:]...)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze(t *testing.T) {
	t.Run("complete year has nothing missing", func(t *testing.T) {
		a := Analyze("722020-12839-2018", yearObservations(2018))
		assert.Equal(t, "722020-12839-2018", a.File)
		assert.Equal(t, 0, a.TotalRowsMissing)
		assert.Equal(t, 0, a.MaxConsecutiveRowsMissing)
	})

	t.Run("counts totals and the longest consecutive gap", func(t *testing.T) {
		obs := yearObservations(2018)
		// Three gaps: hours 100..102, 500..509 and the single hour 2000.
		obs = append(obs[:100:100], obs[103:]...)
		obs = append(obs[:497:497], obs[507:]...)
		obs = append(obs[:1987:1987], obs[1988:]...)

		a := Analyze("725300-94846-2018", obs)
		assert.Equal(t, 14, a.TotalRowsMissing)
		assert.Equal(t, 10, a.MaxConsecutiveRowsMissing)
	})

	t.Run("leap year reports the fixed-basis shortfall", func(t *testing.T) {
		// A complete leap year holds 8784 rows, 24 more than the fixed
		// 8760-row basis, so the shortfall goes negative.
		a := Analyze("leap", yearObservations(2024))
		assert.Equal(t, -24, a.TotalRowsMissing)
		assert.Equal(t, 0, a.MaxConsecutiveRowsMissing)
	})

	t.Run("empty file misses everything", func(t *testing.T) {
		a := Analyze("empty", nil)
		assert.Equal(t, 8760, a.TotalRowsMissing)
		assert.Equal(t, 0, a.MaxConsecutiveRowsMissing)
	})
}

func TestClassify(t *testing.T) {
	good := FileAnalysis{File: "good", TotalRowsMissing: 120, MaxConsecutiveRowsMissing: 12}
	sparse := FileAnalysis{File: "sparse", TotalRowsMissing: 701, MaxConsecutiveRowsMissing: 3}
	gappy := FileAnalysis{File: "gappy", TotalRowsMissing: 200, MaxConsecutiveRowsMissing: 49}
	both := FileAnalysis{File: "both", TotalRowsMissing: 2000, MaxConsecutiveRowsMissing: 500}
	atLimit := FileAnalysis{File: "at-limit", TotalRowsMissing: 700, MaxConsecutiveRowsMissing: 48}

	c := Classify([]FileAnalysis{good, sparse, gappy, both, atLimit}, 700, 48)

	assert.Equal(t, []FileAnalysis{good, atLimit}, c.Good)
	// A file failing both checks lands in the total-missing bucket only.
	assert.Equal(t, []FileAnalysis{sparse, both}, c.TooManyTotalMissing)
	assert.Equal(t, []FileAnalysis{gappy}, c.TooManyConsecutiveMissing)
}

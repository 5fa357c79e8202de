package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitPerfectLine(t *testing.T) {
	reg := Fit([]float64{10, 20, 30, 40})

	assert.InDelta(t, 10, reg.Slope, 1e-9)
	assert.InDelta(t, 10, reg.Intercept, 1e-9)
	assert.InDelta(t, 1, reg.RSquared, 1e-9)
	assert.InDelta(t, 50, reg.At(4), 1e-9)
}

func TestFitFlatSeries(t *testing.T) {
	reg := Fit([]float64{5, 5, 5})

	assert.InDelta(t, 0, reg.Slope, 1e-9)
	assert.InDelta(t, 5, reg.Intercept, 1e-9)
	// A constant series has zero total variance; the flat fit is exact.
	assert.InDelta(t, 1, reg.RSquared, 1e-9)
}

func TestFitDegenerateSeries(t *testing.T) {
	assert.Equal(t, Regression{}, Fit(nil))

	reg := Fit([]float64{7})
	assert.InDelta(t, 0, reg.Slope, 1e-9)
	assert.InDelta(t, 7, reg.Intercept, 1e-9)
	assert.InDelta(t, 1, reg.RSquared, 1e-9)
}

func TestFitNoisySeriesRSquaredInRange(t *testing.T) {
	reg := Fit([]float64{10, 35, 5, 40, 15, 30})

	assert.GreaterOrEqual(t, reg.RSquared, 0.0)
	assert.LessOrEqual(t, reg.RSquared, 1.0)
}

func TestMovingAverageShrinkingWindow(t *testing.T) {
	out := MovingAverage([]float64{2, 4, 6, 8}, 3)

	require.Len(t, out, 4)
	assert.InDelta(t, 2, out[0], 1e-9)
	assert.InDelta(t, 3, out[1], 1e-9)
	assert.InDelta(t, 4, out[2], 1e-9)
	assert.InDelta(t, 6, out[3], 1e-9)
}

func TestMovingAverageWindowFloor(t *testing.T) {
	out := MovingAverage([]float64{1, 2, 3}, 0)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestProjectMonthLabels(t *testing.T) {
	points, err := Project([]float64{100, 110, 120}, "2026-11", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2026-12", points[0].Month)
	assert.Equal(t, "2027-01", points[1].Month)
	assert.Equal(t, "2027-02", points[2].Month)
}

func TestProjectContinuesTrend(t *testing.T) {
	points, err := Project([]float64{100, 110, 120}, "2026-03", 2)
	require.NoError(t, err)

	assert.InDelta(t, 130, points[0].Predicted, 1e-9)
	assert.InDelta(t, 140, points[1].Predicted, 1e-9)
	// A perfect fit projects with no residual error band.
	assert.InDelta(t, points[0].Predicted, points[0].LowerBound, 1e-9)
	assert.InDelta(t, points[0].Predicted, points[0].UpperBound, 1e-9)
}

func TestProjectWideningBand(t *testing.T) {
	series := []float64{100, 130, 90, 140, 110, 150}
	points, err := Project(series, "2026-06", 6)
	require.NoError(t, err)

	for i := 1; i < len(points); i++ {
		prevWidth := points[i-1].UpperBound - points[i-1].LowerBound
		width := points[i].UpperBound - points[i].LowerBound
		assert.GreaterOrEqual(t, width, prevWidth, "band must not shrink at step %d", i)
	}
}

func TestProjectClampsNegatives(t *testing.T) {
	// Steep downtrend: projections would cross zero without clamping.
	points, err := Project([]float64{100, 60, 20}, "2026-06", 4)
	require.NoError(t, err)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
		assert.GreaterOrEqual(t, p.UpperBound, p.Predicted)
	}
	assert.Equal(t, 0.0, points[3].Predicted)
}

func TestProjectRejectsBadInput(t *testing.T) {
	_, err := Project([]float64{1, 2}, "2026-06", 0)
	require.Error(t, err)

	_, err = Project([]float64{1, 2}, "June 2026", 3)
	require.Error(t, err)
}

func TestConfidenceShortSeries(t *testing.T) {
	assert.Equal(t, 0, Confidence(nil))
	assert.Equal(t, 0, Confidence([]float64{10}))
	assert.Equal(t, 0, Confidence([]float64{10, 20}))
}

func TestConfidenceRange(t *testing.T) {
	steady := []float64{100, 102, 104, 106, 108, 110, 112, 114, 116, 118, 120, 122}
	erratic := []float64{5, 200, 1, 180, 3, 250}

	steadyScore := Confidence(steady)
	erraticScore := Confidence(erratic)

	assert.Greater(t, steadyScore, erraticScore)
	for _, score := range []int{steadyScore, erraticScore} {
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestConfidenceRewardsLongerHistory(t *testing.T) {
	short := []float64{100, 110, 120}
	long := make([]float64, 24)
	for i := range long {
		long[i] = 100 + 10*float64(i)
	}

	assert.Greater(t, Confidence(long), Confidence(short))
}

func TestTrendClassification(t *testing.T) {
	up := []float64{100, 120, 140, 160}
	down := []float64{160, 140, 120, 100}
	flat := []float64{100, 100.1, 99.9, 100}

	assert.Equal(t, "increasing", trendFor(Fit(up), up))
	assert.Equal(t, "decreasing", trendFor(Fit(down), down))
	assert.Equal(t, "stable", trendFor(Fit(flat), flat))
}

func TestNewProjectionSetHorizons(t *testing.T) {
	series := []float64{100, 110, 120, 130, 140, 150}
	set, err := NewProjectionSet(series, "2026-06")
	require.NoError(t, err)

	assert.Len(t, set.ThreeMonths, 3)
	assert.Len(t, set.SixMonths, 6)
	assert.Len(t, set.TwelveMonths, 12)
	assert.Equal(t, "increasing", set.Trend)
	assert.Greater(t, set.Confidence, 0)
	assert.Equal(t, "2026-07", set.ThreeMonths[0].Month)
}

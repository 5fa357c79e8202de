package forecast

import (
	"fmt"
	"math"
	"time"
)

const monthLayout = "2006-01"

// zScore95 is the two-sided 95% normal quantile used for projection bounds.
const zScore95 = 1.96

// Regression holds the fitted line of an ordinary least squares regression
// over a series indexed x = 0..n-1.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// Fit runs an ordinary least squares regression over the series. An empty
// series fits a zero line with no explanatory power; a single observation
// fits a flat line through it with RSquared of 1.
func Fit(series []float64) Regression {
	n := len(series)
	if n == 0 {
		return Regression{}
	}
	if n == 1 {
		return Regression{Intercept: series[0], RSquared: 1}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return Regression{Intercept: sumY / fn, RSquared: 1}
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	mean := sumY / fn
	var ssTotal, ssResidual float64
	for i, y := range series {
		fitted := slope*float64(i) + intercept
		ssTotal += (y - mean) * (y - mean)
		ssResidual += (y - fitted) * (y - fitted)
	}
	rSquared := 1.0
	if ssTotal != 0 {
		rSquared = 1 - ssResidual/ssTotal
	}
	if rSquared < 0 {
		rSquared = 0
	} else if rSquared > 1 {
		rSquared = 1
	}
	return Regression{Slope: slope, Intercept: intercept, RSquared: rSquared}
}

// At evaluates the fitted line at index x.
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// MovingAverage smooths the series with a trailing window. The window
// shrinks at the start of the series so the output has the same length as
// the input. A window below 1 is treated as 1.
func MovingAverage(series []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(series))
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		span := i + 1
		if span > window {
			span = window
		}
		out[i] = sum / float64(span)
	}
	return out
}

// Point is one projected month with its uncertainty band. Values are
// clamped at zero: the series being projected are non-negative magnitudes.
type Point struct {
	Month      string  `json:"month"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Project extends the fitted trend horizon months past the end of the
// series. The uncertainty band grows with the projection distance: the
// residual standard error scaled by the 95% quantile, widened 10% per
// additional step. lastMonth is the YYYY-MM label of the final observation.
func Project(historical []float64, lastMonth string, horizon int) ([]Point, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("projection horizon must be positive, got %d", horizon)
	}
	base, err := time.Parse(monthLayout, lastMonth)
	if err != nil {
		return nil, fmt.Errorf("invalid month label %q: %w", lastMonth, err)
	}

	reg := Fit(historical)
	n := len(historical)

	var se float64
	if n > 2 {
		var ssResidual float64
		for i, y := range historical {
			r := y - reg.At(float64(i))
			ssResidual += r * r
		}
		se = math.Sqrt(ssResidual / float64(n-2))
	}

	points := make([]Point, 0, horizon)
	for k := 1; k <= horizon; k++ {
		predicted := reg.At(float64(n - 1 + k))
		if predicted < 0 {
			predicted = 0
		}
		margin := se * zScore95 * (1 + 0.1*float64(k-1))
		lower := predicted - margin
		if lower < 0 {
			lower = 0
		}
		points = append(points, Point{
			Month:      base.AddDate(0, k, 0).Format(monthLayout),
			Predicted:  predicted,
			LowerBound: lower,
			UpperBound: predicted + margin,
		})
	}
	return points, nil
}

// Confidence scores how trustworthy a projection from this series is, as an
// integer percentage. Fewer than three observations score zero. The score
// rewards trend fit and history length and penalizes volatility relative to
// the mean.
func Confidence(series []float64) int {
	n := len(series)
	if n < 3 {
		return 0
	}

	reg := Fit(series)

	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(n))

	var volatilityPenalty float64
	if mean != 0 {
		volatilityPenalty = 20 * math.Abs(stdDev/mean)
		if volatilityPenalty > 20 {
			volatilityPenalty = 20
		}
	}

	historyBonus := 30 * float64(n) / 24
	if historyBonus > 30 {
		historyBonus = 30
	}

	score := 50*reg.RSquared + historyBonus - volatilityPenalty + 20
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// ProjectionSet bundles the standard projection horizons for one series.
type ProjectionSet struct {
	ThreeMonths  []Point `json:"three_months"`
	SixMonths    []Point `json:"six_months"`
	TwelveMonths []Point `json:"twelve_months"`
	Confidence   int     `json:"confidence"`
	Trend        string  `json:"trend"`
}

// trendFor classifies the fitted slope relative to the series scale so a
// near-flat line on a large series is not reported as a trend.
func trendFor(reg Regression, series []float64) string {
	var sum float64
	for _, v := range series {
		sum += math.Abs(v)
	}
	scale := 0.0
	if len(series) > 0 {
		scale = sum / float64(len(series))
	}
	threshold := 0.01 * scale
	switch {
	case reg.Slope > threshold:
		return "increasing"
	case reg.Slope < -threshold:
		return "decreasing"
	default:
		return "stable"
	}
}

// NewProjectionSet projects the series over three, six and twelve months
// and attaches the confidence score and trend direction.
func NewProjectionSet(historical []float64, lastMonth string) (*ProjectionSet, error) {
	three, err := Project(historical, lastMonth, 3)
	if err != nil {
		return nil, err
	}
	six, err := Project(historical, lastMonth, 6)
	if err != nil {
		return nil, err
	}
	twelve, err := Project(historical, lastMonth, 12)
	if err != nil {
		return nil, err
	}
	return &ProjectionSet{
		ThreeMonths:  three,
		SixMonths:    six,
		TwelveMonths: twelve,
		Confidence:   Confidence(historical),
		Trend:        trendFor(Fit(historical), historical),
	}, nil
}

// Package regress detects performance regressions in historical query
// execution series. Analysis is pure: the caller supplies the series, the
// analyzer computes statistics, trend, confidence, and severity.
package regress

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Sample is one historical observation of a query's execution profile.
type Sample struct {
	CapturedAt  time.Time `json:"captured_at"`
	TotalTimeMs float64   `json:"total_exec_time_ms"`
	MeanTimeMs  float64   `json:"mean_exec_time_ms"`
	Calls       int64     `json:"calls"`
}

// Status reports whether a series could be analyzed.
type Status string

const (
	StatusAnalyzed         Status = "analyzed"
	StatusInsufficientData Status = "insufficient_data"
)

// Trend is the direction of the execution-time series.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDegrading        Trend = "degrading"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// Severity ranks a detected regression.
type Severity string

const (
	SeverityMinimal  Severity = "MINIMAL"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Record is the outcome of analyzing one query's series.
type Record struct {
	QueryID    string `json:"query_id"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DataPoints int    `json:"data_points"`

	IsRegression         bool     `json:"is_regression"`
	RegressionPercentage float64  `json:"regression_percentage"`
	Severity             Severity `json:"severity,omitempty"`
	Confidence           float64  `json:"confidence"`
	TrendDirection       Trend    `json:"trend_direction,omitempty"`

	HistoricalMeanMs   float64 `json:"historical_mean_ms"`
	HistoricalMedianMs float64 `json:"historical_median_ms"`
	HistoricalStddevMs float64 `json:"historical_stddev_ms"`

	RecentTimeMs float64 `json:"recent_exec_time_ms"`
	RecentMeanMs float64 `json:"recent_mean_exec_time_ms"`
	RecentCalls  int64   `json:"recent_calls"`

	PeriodDays       int       `json:"analysis_period_days"`
	ThresholdPercent float64   `json:"threshold_percentage"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// Analyze inspects the series for queryID within the trailing window of
// days. Threshold is fractional: 0.5 flags a 50% increase over the
// historical mean. The mean includes the most recent sample, so the
// reported percentage understates the raw jump on short series.
func Analyze(queryID string, samples []Sample, days int, threshold float64) *Record {
	now := time.Now()
	rec := &Record{
		QueryID:          queryID,
		PeriodDays:       days,
		ThresholdPercent: threshold * 100,
		AnalyzedAt:       now,
	}

	window := filterWindow(samples, now, days)
	rec.DataPoints = len(window)
	if len(window) < 2 {
		rec.Status = StatusInsufficientData
		rec.Message = fmt.Sprintf("need at least 2 data points, got %d", len(window))
		return rec
	}

	times := make([]float64, len(window))
	for i, s := range window {
		times[i] = s.TotalTimeMs
	}

	rec.Status = StatusAnalyzed
	rec.HistoricalMeanMs = mean(times)
	rec.HistoricalMedianMs = median(times)
	rec.HistoricalStddevMs = stddev(times)

	recent := window[len(window)-1]
	rec.RecentTimeMs = recent.TotalTimeMs
	rec.RecentMeanMs = recent.MeanTimeMs
	rec.RecentCalls = recent.Calls

	if rec.HistoricalMeanMs > 0 {
		rec.RegressionPercentage = (recent.TotalTimeMs - rec.HistoricalMeanMs) / rec.HistoricalMeanMs * 100
	}
	rec.IsRegression = rec.RegressionPercentage > threshold*100

	rec.TrendDirection = trend(times)
	rec.Confidence = confidence(len(window), rec.HistoricalStddevMs, recent.Calls)
	rec.Severity = severity(rec.RegressionPercentage, rec.Confidence)
	return rec
}

// FindRegressions analyzes every series and returns the confirmed
// regressions, worst first. Series whose most recent sample has fewer than
// minCalls calls are skipped.
func FindRegressions(series map[string][]Sample, days int, threshold float64, minCalls int64) []*Record {
	var out []*Record
	for queryID, samples := range series {
		if len(samples) > 0 && samples[len(samples)-1].Calls < minCalls {
			continue
		}
		rec := Analyze(queryID, samples, days, threshold)
		if rec.IsRegression {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegressionPercentage > out[j].RegressionPercentage
	})
	return out
}

// filterWindow keeps samples within the trailing window, preserving order.
// Samples without a capture time are assumed current.
func filterWindow(samples []Sample, now time.Time, days int) []Sample {
	if days <= 0 {
		return samples
	}
	cutoff := now.AddDate(0, 0, -days)
	var out []Sample
	for _, s := range samples {
		if s.CapturedAt.IsZero() || !s.CapturedAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func median(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stddev is the sample standard deviation, 0 for fewer than two values.
func stddev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := mean(v)
	var sum float64
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(v)-1))
}

// trend fits a least-squares line through the series and reads the slope
// sign. Fewer than three points cannot distinguish trend from noise.
func trend(times []float64) Trend {
	if len(times) < 3 {
		return TrendInsufficientData
	}
	s := slope(times)
	switch {
	case s < 0:
		return TrendImproving
	case s > 0:
		return TrendDegrading
	default:
		return TrendStable
	}
}

// slope is the least-squares slope of y over x = 0..n-1.
func slope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// confidence weighs sample count, call volume, and series consistency.
func confidence(dataPoints int, stddevMs float64, recentCalls int64) float64 {
	dataConf := math.Min(float64(dataPoints)/10, 1)
	callConf := math.Min(float64(recentCalls)/100, 1)
	consistencyConf := math.Max(0, 1-stddevMs/1000)

	c := dataConf*0.4 + callConf*0.4 + consistencyConf*0.2
	return math.Min(c, 1)
}

// severity buckets the regression by magnitude, gated on confidence for the
// upper tiers.
func severity(pct, confidence float64) Severity {
	switch {
	case pct > 200 && confidence > 0.7:
		return SeverityCritical
	case pct > 100 && confidence > 0.5:
		return SeverityHigh
	case pct > 50 && confidence > 0.3:
		return SeverityMedium
	case pct > 20:
		return SeverityLow
	default:
		return SeverityMinimal
	}
}

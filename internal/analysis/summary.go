package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vitalsense/rppg-analyzer/pkg/logging"
	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// SummaryCalculator aggregates batch results into statistics and insights
type SummaryCalculator struct {
	logger logging.Logger
}

// NewSummaryCalculator creates a new summary calculator
func NewSummaryCalculator(logger logging.Logger) *SummaryCalculator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &SummaryCalculator{
		logger: logger.WithFields(logging.Fields{"component": "summary"}),
	}
}

// BatchStats represents statistical measures of one metric across a batch
type BatchStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// BatchSummary represents an aggregated view of a batch analysis run
type BatchSummary struct {
	TotalRecordings  int               `json:"total_recordings"`
	Analyzed         int               `json:"analyzed"`
	Failed           int               `json:"failed"`
	TotalDuration    time.Duration     `json:"-"`
	TotalDurationMS  float64           `json:"total_duration_ms"`
	HeartRate        *BatchStats       `json:"heart_rate"`
	SignalQuality    *BatchStats       `json:"signal_quality"`
	ProcessingMS     *BatchStats       `json:"processing_ms"`
	ConfidenceCounts map[string]int    `json:"confidence_counts"`
	Errors           map[string]string `json:"errors,omitempty"`
}

// Summarize reduces a batch of results to aggregate statistics
func (sc *SummaryCalculator) Summarize(results []*Result, totalDuration time.Duration) *BatchSummary {
	summary := &BatchSummary{
		TotalRecordings:  len(results),
		TotalDuration:    totalDuration,
		TotalDurationMS:  float64(totalDuration.Microseconds()) / 1000.0,
		ConfidenceCounts: make(map[string]int),
		Errors:           make(map[string]string),
	}

	var heartRates, qualities, timings []float64
	for _, result := range results {
		if result.Error != nil || result.Analysis == nil {
			summary.Failed++
			label := result.Source
			if label == "" {
				label = fmt.Sprintf("recording_%d", summary.Failed)
			}
			summary.Errors[label] = result.ErrorMessage
			continue
		}

		summary.Analyzed++
		summary.ConfidenceCounts[string(result.Analysis.Confidence)]++
		heartRates = append(heartRates, float64(result.Analysis.HeartRate))
		qualities = append(qualities, float64(result.Analysis.SignalQuality))
		timings = append(timings, result.ProcessingMS)
	}

	summary.HeartRate = sc.calculateStats(heartRates)
	summary.SignalQuality = sc.calculateStats(qualities)
	summary.ProcessingMS = sc.calculateStats(timings)

	sc.logger.Debug("batch summarized", logging.Fields{
		"total":    summary.TotalRecordings,
		"analyzed": summary.Analyzed,
		"failed":   summary.Failed,
	})

	return summary
}

// GenerateInsights derives human-readable observations from a batch summary
func (sc *SummaryCalculator) GenerateInsights(summary *BatchSummary) []string {
	var insights []string

	if summary.TotalRecordings == 0 {
		return insights
	}

	if summary.Failed == 0 {
		insights = append(insights,
			fmt.Sprintf("All %d recordings analyzed successfully", summary.TotalRecordings))
	} else {
		insights = append(insights,
			fmt.Sprintf("%d of %d recordings failed analysis", summary.Failed, summary.TotalRecordings))
	}

	if summary.Analyzed == 0 {
		return insights
	}

	insights = append(insights, fmt.Sprintf("Mean heart rate %.1f bpm (range %.0f-%.0f)",
		summary.HeartRate.Mean, summary.HeartRate.Min, summary.HeartRate.Max))

	if low := summary.ConfidenceCounts[string(rppg.ConfidenceLow)]; low > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d of %d recordings rated low confidence; improve lighting and reduce movement",
			low, summary.Analyzed))
	}
	if high := summary.ConfidenceCounts[string(rppg.ConfidenceHigh)]; high == summary.Analyzed && summary.Analyzed > 1 {
		insights = append(insights, "All recordings produced high-confidence estimates")
	}

	if summary.HeartRate.StdDev > 15 && summary.Analyzed > 1 {
		insights = append(insights, fmt.Sprintf(
			"Heart rate varies widely across recordings (std dev %.1f bpm); capture conditions may be inconsistent",
			summary.HeartRate.StdDev))
	}

	if summary.SignalQuality.Mean < 40 {
		insights = append(insights, fmt.Sprintf(
			"Average signal quality is weak (%.0f/100)", summary.SignalQuality.Mean))
	}

	if summary.ProcessingMS.Mean > 0 {
		insights = append(insights, fmt.Sprintf(
			"Average processing time %.1f ms per recording", summary.ProcessingMS.Mean))
	}

	return insights
}

// calculateStats calculates statistical measures for a dataset
func (sc *SummaryCalculator) calculateStats(data []float64) *BatchStats {
	if len(data) == 0 {
		return &BatchStats{Count: 0}
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	stats := &BatchStats{
		Count:  len(data),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: percentile(sorted, 50),
		P95:    percentile(sorted, 95),
	}

	sum := 0.0
	for _, value := range data {
		sum += value
	}
	stats.Mean = sum / float64(len(data))

	sumSquaredDiffs := 0.0
	for _, value := range data {
		diff := value - stats.Mean
		sumSquaredDiffs += diff * diff
	}
	stats.StdDev = math.Sqrt(sumSquaredDiffs / float64(len(data)))

	return sanitizeStats(stats)
}

// sanitizeStats replaces non-finite values so the summary always serializes
func sanitizeStats(stats *BatchStats) *BatchStats {
	clean := func(v float64) float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0
		}
		return v
	}

	stats.Mean = clean(stats.Mean)
	stats.Median = clean(stats.Median)
	stats.P95 = clean(stats.P95)
	stats.Min = clean(stats.Min)
	stats.Max = clean(stats.Max)
	stats.StdDev = clean(stats.StdDev)

	return stats
}

// percentile calculates the specified percentile of sorted data with linear
// interpolation between adjacent ranks.
func percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	index := (p / 100.0) * float64(len(sortedData)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}
	if lower == upper {
		return sortedData[lower]
	}

	weight := index - float64(lower)
	return sortedData[lower]*(1-weight) + sortedData[upper]*weight
}

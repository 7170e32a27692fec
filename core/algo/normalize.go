package algo

import (
	"math"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/montanaflynn/stats"
)

// Normalize fills Normalized[metric] on every model carrying the metric. Raw Metrics
// are never touched. Values land in [0,1]; when every model shares one value the
// result is 1 for all of them. An unknown metric is a configuration error and leaves
// every model unchanged.
func Normalize(models []schema.Model, metrics []string, directions schema.MetricDirections) error {
	for _, metric := range metrics {
		if !directions.Known(metric) {
			return contract.ConfigErrorf("metric %q is neither higher-is-better nor lower-is-better", metric)
		}
	}

	for _, metric := range metrics {
		values := make(map[int]float64, len(models))
		for i, m := range models {
			v, ok := transformed(m, metric, directions)
			if !ok {
				continue
			}
			values[i] = v
		}
		for i, norm := range minMax(values) {
			if models[i].Normalized == nil {
				models[i].Normalized = make(map[string]float64)
			}
			models[i].Normalized[metric] = norm
		}
	}
	return nil
}

// transformed returns the value of metric on m oriented so that larger is better.
// The boolean is false when the model lacks the metric.
func transformed(m schema.Model, metric string, directions schema.MetricDirections) (float64, bool) {
	if metric == schema.GlobalScore {
		return GlobalScore(m, directions), true
	}
	raw, ok := m.Metrics[metric]
	if !ok {
		return 0, false
	}
	if directions[metric] == schema.LowerIsBetter {
		return inverse(raw), true
	}
	return raw, true
}

// GlobalScore is the product of the higher-is-better raw values of m divided by the
// product of its lower-is-better raw values.
func GlobalScore(m schema.Model, directions schema.MetricDirections) float64 {
	higher, lower := 1.0, 1.0
	for name, v := range m.Metrics {
		switch directions[name] {
		case schema.HigherIsBetter:
			higher *= v
		case schema.LowerIsBetter:
			lower *= v
		}
	}
	if lower == 0 {
		return math.Inf(1)
	}
	return higher / lower
}

// inverse maps a lower-is-better value onto a higher-is-better scale. Zero is the best
// possible value and maps to +Inf.
func inverse(v float64) float64 {
	if v == 0 {
		return math.Inf(1)
	}
	return 1 / v
}

// minMax scales the finite values to [0,1]. +Inf is always 1 and NaN is always 0.
func minMax(values map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(values))
	var finite stats.Float64Data
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case math.IsInf(v, 1):
			out[i] = 1
		case math.IsInf(v, -1):
			out[i] = 0
		default:
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return out
	}

	lo, _ := stats.Min(finite)
	hi, _ := stats.Max(finite)
	for i, v := range values {
		if _, done := out[i]; done {
			continue
		}
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = clamp((v - lo) / (hi - lo))
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

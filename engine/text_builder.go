package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// TEXT BUILDER — Produces Metric displays from scalar results
// ============================================================================
// A metric that could not be computed (no rows left after filtering, a
// division by zero) is shown as NoDataText, never as NaN or 0.
// ============================================================================

// CountMetric formats an integer metric with thousands separators.
func CountMetric(key, label string, n int) Metric {
	return Metric{
		Key:       key,
		Label:     label,
		Value:     FormatInt(n),
		RawValue:  float64(n),
		Available: true,
	}
}

// DecimalMetric formats a float metric with the given number of decimals.
// ok=false, NaN and Inf all render as NoDataText.
func DecimalMetric(key, label string, v float64, ok bool, decimals int) Metric {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable(key, label)
	}
	return Metric{
		Key:       key,
		Label:     label,
		Value:     fmt.Sprintf("%.*f", decimals, v),
		RawValue:  v,
		Available: true,
	}
}

// Unavailable is the "no data" state of a metric.
func Unavailable(key, label string) Metric {
	return Metric{Key: key, Label: label, Value: NoDataText}
}

package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
//
// Absent values:
//   - a record missing a grouping key contributes to no group
//   - a record missing a summed measure contributes 0 to its group
// ============================================================================

// GroupAndCount groups records by groupBy, then buckets each group by
// bucketBy and counts. Records missing either field are excluded.
// Group keys and bucket keys keep first-occurrence order.
func GroupAndCount(view RecordView, groupBy, bucketBy string) []Group {
	complete := Where(view, func(i int) bool {
		_, okGroup := view.Dimension(i, groupBy)
		_, okBucket := view.Dimension(i, bucketBy)
		return okGroup && okBucket
	})
	if complete.Len() == 0 {
		return nil
	}

	groups := groupBySingle(complete, groupBy)
	for i := range groups {
		countGroup(&groups[i])
		groups[i].SubGroups = groupBySingle(groups[i].View, bucketBy)
		for j := range groups[i].SubGroups {
			countGroup(&groups[i].SubGroups[j])
		}
	}
	return groups
}

// GroupAndSum groups records by groupBy and sums valueField per group.
// A missing or non-numeric value counts as 0; totals never shrink because a
// value is absent. Records missing the group key are excluded.
func GroupAndSum(view RecordView, groupBy, valueField string) []Group {
	groups := groupBySingle(view, groupBy)
	for i := range groups {
		groups[i].Count = groups[i].View.Len()
		groups[i].Value = SumMeasure(groups[i].View, valueField)
	}
	return groups
}

// CountBy groups records by a single dimension and counts them.
func CountBy(view RecordView, dimension string) []Group {
	groups := groupBySingle(view, dimension)
	for i := range groups {
		countGroup(&groups[i])
	}
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key, ok := view.Dimension(i, dimension)
		if !ok {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func countGroup(group *Group) {
	group.Count = group.View.Len()
	group.Value = float64(group.Count)
}

// ============================================================================
// MEASURES
// ============================================================================

// SumMeasure sums a named measure across a view. Absent values count as 0.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok && !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// MeasureValues returns the present values of a measure, in view order.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// UniqueValues returns distinct present values for a dimension, first-occurrence order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val, ok := view.Dimension(i, dimension)
		if ok && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// ============================================================================
// SORTING
// ============================================================================

// Sort modes accepted by SortGroups.
const (
	SortNone       = ""
	SortValueDesc  = "value_desc"
	SortValueAsc   = "value_asc"
	SortNumericAsc = "numeric_asc"
	SortDateAsc    = "date_asc"
	SortLabelAsc   = "label_asc"
)

// SortGroups sorts groups in place. Sorting is stable, so ties keep
// first-occurrence order. Unknown modes preserve grouping order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case SortValueDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case SortValueAsc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case SortNumericAsc:
		sort.SliceStable(groups, func(i, j int) bool { return parseNumber(groups[i].Key) < parseNumber(groups[j].Key) })
	case SortDateAsc:
		sort.SliceStable(groups, func(i, j int) bool { return parseDate(groups[i].Key) < parseDate(groups[j].Key) })
	case SortLabelAsc:
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	default:
		// preserve grouping order
	}
}

func parseNumber(key string) float64 {
	f, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return math.Inf(1)
	}
	return f
}

func parseDate(key string) float64 {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return math.Inf(1)
	}
	return float64(t.Unix())
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo1 rounds to 1 decimal place.
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// LabelForDimension turns a dimension key into a label: "accident_nature" → "Accident nature".
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	s := strings.ReplaceAll(dimension, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

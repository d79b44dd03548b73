package engine

import (
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Flattens a ChartConfig into TableData
// ============================================================================
// Used by tabular sinks (workbook sheets, text output). Wide layout:
// one row per x key (union across series), one column per series. Rows
// follow the x axis: ascending on numeric and date axes, first-occurrence
// order on category axes. A series without a point at a key leaves the cell
// empty.
// ============================================================================

// BuildTable produces a wide TableData from a chart.
func BuildTable(chart *ChartConfig) *TableData {
	if chart == nil || chart.IsEmpty() {
		title := ""
		if chart != nil {
			title = chart.Title
		}
		return &TableData{
			Title:   title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}

	columns := []Column{{Key: "x", Label: xLabel, Type: "text", Align: "left"}}
	for i, s := range chart.Series {
		columns = append(columns, Column{
			Key:   "s" + strconv.Itoa(i),
			Label: s.Name,
			Type:  "number",
			Align: "right",
		})
	}

	keys := rowKeys(chart)

	rows := make([][]string, 0, len(keys))
	totals := make([]float64, len(chart.Series))
	for _, key := range keys {
		row := []string{key}
		for i, s := range chart.Series {
			p, ok := s.Point(key)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatNumber(p.Value))
			totals[i] += p.Value
		}
		rows = append(rows, row)
	}

	values := make(map[string]string, len(totals))
	for i, t := range totals {
		values["s"+strconv.Itoa(i)] = formatNumber(t)
	}

	return &TableData{
		Title:   chart.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{Label: "Total", Values: values},
	}
}

// rowKeys returns the union of x keys across series in axis order.
func rowKeys(chart *ChartConfig) []string {
	var union []Group
	seen := make(map[string]bool)
	for _, s := range chart.Series {
		for _, p := range s.Data {
			if !seen[p.Label] {
				seen[p.Label] = true
				union = append(union, Group{Key: p.Label})
			}
		}
	}
	switch chart.XAxisKind {
	case AxisNumeric:
		SortGroups(union, SortNumericAsc)
	case AxisDate:
		SortGroups(union, SortDateAsc)
	}
	return Keys(union)
}

// formatNumber prints whole numbers without decimals, others with two.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

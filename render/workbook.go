package render

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/traffiq/traffiq/dashboard"
	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/traffic"
)

const (
	overviewSheet = "Overview"
	metricsSheet  = "Metrics"
)

// WorkbookRenderer keeps one worksheet per chart plus a Metrics sheet and
// an Overview sheet with the selector state. Save writes the file.
type WorkbookRenderer struct {
	Path string

	mu       sync.Mutex
	file     *excelize.File
	metrics  map[string][]engine.Metric
	datasets []string
}

// NewWorkbookRenderer returns a renderer that saves to path.
func NewWorkbookRenderer(path string) *WorkbookRenderer {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", overviewSheet)
	return &WorkbookRenderer{
		Path:    path,
		file:    f,
		metrics: make(map[string][]engine.Metric),
	}
}

// Draw replaces the chart's sheet with its table.
func (r *WorkbookRenderer) Draw(ctx context.Context, id traffic.ChartID, chart *engine.ChartConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sheet := sheetName(string(id))
	if err := r.resetSheet(sheet); err != nil {
		return err
	}

	f := r.file
	f.SetCellValue(sheet, "A1", chart.Title)
	if chart.Placeholder != "" {
		f.SetCellValue(sheet, "A3", chart.Placeholder)
		return nil
	}
	if chart.Annotation != "" {
		f.SetCellValue(sheet, "A2", chart.Annotation)
	}

	table := engine.BuildTable(chart)
	for i, col := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, col.Label)
		f.SetColWidth(sheet, colName(i+1), colName(i+1), 18)
	}
	for ri, row := range table.Rows {
		for ci, value := range row {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+4)
			if ci > 0 {
				if n, err := strconv.ParseFloat(value, 64); err == nil {
					f.SetCellValue(sheet, cell, n)
					continue
				}
			}
			f.SetCellValue(sheet, cell, value)
		}
	}
	return nil
}

// ShowFragment records the map year on the Overview sheet; the fragment
// itself has no tabular form.
func (r *WorkbookRenderer) ShowFragment(ctx context.Context, year int, fragment []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file.SetCellValue(overviewSheet, "D1", "Map year")
	r.file.SetCellValue(overviewSheet, "E1", year)
	return nil
}

// ShowMetrics rewrites the Metrics sheet with the latest metrics of every dataset.
func (r *WorkbookRenderer) ShowMetrics(ctx context.Context, dataset string, metrics []engine.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.metrics[dataset]; !seen {
		r.datasets = append(r.datasets, dataset)
	}
	r.metrics[dataset] = metrics

	if err := r.resetSheet(metricsSheet); err != nil {
		return err
	}
	f := r.file
	for i, h := range []string{"Dataset", "Metric", "Value"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(metricsSheet, cell, h)
		f.SetColWidth(metricsSheet, colName(i+1), colName(i+1), 28)
	}
	row := 2
	for _, ds := range r.datasets {
		for _, m := range r.metrics[ds] {
			f.SetCellValue(metricsSheet, fmt.Sprintf("A%d", row), ds)
			f.SetCellValue(metricsSheet, fmt.Sprintf("B%d", row), m.Label)
			if m.Available {
				f.SetCellValue(metricsSheet, fmt.Sprintf("C%d", row), m.RawValue)
			} else {
				f.SetCellValue(metricsSheet, fmt.Sprintf("C%d", row), m.Value)
			}
			row++
		}
	}
	return nil
}

// ShowControls writes the selector state to the Overview sheet.
func (r *WorkbookRenderer) ShowControls(ctx context.Context, domains []dashboard.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.file
	f.SetCellValue(overviewSheet, "A1", "Control")
	f.SetCellValue(overviewSheet, "B1", "Value")
	f.SetColWidth(overviewSheet, "A", "B", 20)
	for i, d := range domains {
		value := d.Value
		if !d.Enabled {
			value = "(disabled)"
		}
		f.SetCellValue(overviewSheet, fmt.Sprintf("A%d", i+2), string(d.Control))
		f.SetCellValue(overviewSheet, fmt.Sprintf("B%d", i+2), value)
	}
	return nil
}

// Save writes the workbook to Path.
func (r *WorkbookRenderer) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.SaveAs(r.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (r *WorkbookRenderer) Close() error {
	return r.file.Close()
}

func (r *WorkbookRenderer) resetSheet(name string) error {
	if idx, _ := r.file.GetSheetIndex(name); idx >= 0 {
		if err := r.file.DeleteSheet(name); err != nil {
			return fmt.Errorf("reset sheet %s: %w", name, err)
		}
	}
	if _, err := r.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

// sheetName fits Excel's 31-character sheet name limit.
func sheetName(s string) string {
	if len(s) > 31 {
		return s[:31]
	}
	return s
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

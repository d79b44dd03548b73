package helpers

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// TABLE LOADER — rows → typed records
// ============================================================================
// The first row is the header. Values are coerced strictly: anything that
// fails to parse becomes absent, never zero.
// ============================================================================

// DateWindow limits licenses to an inclusive range of issue days.
// A zero bound is open.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window accepts every date.
func (w DateWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether t falls inside the window. Days are compared
// as calendar dates in each value's own location. When the window is
// bounded, a zero t is outside it.
func (w DateWindow) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	if t.IsZero() {
		return false
	}
	day := civilDay(t)
	if !w.From.IsZero() && day < civilDay(w.From) {
		return false
	}
	if !w.To.IsZero() && day > civilDay(w.To) {
		return false
	}
	return true
}

// civilDay packs a calendar date into a sortable yyyymmdd integer.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// ParseAccidents builds the accident table from rows.
func ParseAccidents(rows [][]string, sch schema.Config) (*traffic.AccidentTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no header row", sch.Name)
	}
	cols, err := sch.Resolve(rows[0])
	if err != nil {
		return nil, err
	}
	f := newFieldReader(sch, cols)

	records := make([]traffic.AccidentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		deaths := f.Int(row, schema.FieldDeathCount)
		if deaths.Valid && deaths.V < 0 {
			deaths = traffic.None
		}
		rec := traffic.AccidentRecord{
			Year:             f.Int(row, schema.FieldAccidentYear),
			DeathCount:       deaths,
			AccidentNature:   f.Text(row, schema.FieldAccidentNature),
			AccidentReason:   f.Text(row, schema.FieldAccidentReason),
			NationalityGroup: f.Text(row, schema.FieldNationalityGroup),
			Severity:         f.Text(row, schema.FieldSeverity),
			BirthYear:        f.Int(row, schema.FieldBirthYear),
		}
		if f.Has(schema.FieldZone) {
			rec.Zone = NormalizeZone(f.Text(row, schema.FieldZone))
		}
		records = append(records, rec)
	}
	return traffic.NewAccidentTable(records), nil
}

// ParseLicenses builds the license table from rows. Year and month come
// from the issue date when the source has no such columns; age comes from
// the birth year when there is no AGE column.
func ParseLicenses(rows [][]string, sch schema.Config, window DateWindow) (*traffic.LicenseTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no header row", sch.Name)
	}
	cols, err := sch.Resolve(rows[0])
	if err != nil {
		return nil, err
	}
	f := newFieldReader(sch, cols)

	records := make([]traffic.LicenseRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		issued := f.Date(row, schema.FieldFirstIssueDate)
		if !window.Contains(issued) {
			continue
		}

		rec := traffic.LicenseRecord{
			Gender:           f.Text(row, schema.FieldGender),
			NationalityGroup: f.Text(row, schema.FieldNationalityGroup),
			FirstIssueDate:   issued,
		}

		if f.Has(schema.FieldLicenseYear) {
			rec.Year = f.Int(row, schema.FieldLicenseYear)
		} else if !issued.IsZero() {
			rec.Year = traffic.Some(issued.Year())
		}

		if f.Has(schema.FieldLicenseMonth) {
			rec.Month = f.Int(row, schema.FieldLicenseMonth)
		} else if !issued.IsZero() {
			rec.Month = traffic.Some(int(issued.Month()))
		}
		if rec.Month.Valid && (rec.Month.V < 1 || rec.Month.V > 12) {
			rec.Month = traffic.None
		}

		if f.Has(schema.FieldAge) {
			rec.Age = f.Int(row, schema.FieldAge)
		} else if birth := f.Int(row, schema.FieldBirthYear); birth.Valid && !issued.IsZero() {
			rec.Age = traffic.Some(issued.Year() - birth.V)
		}

		records = append(records, rec)
	}
	return traffic.NewLicenseTable(records), nil
}

// ============================================================================
// FIELD READER — cell coercion by declared column type
// ============================================================================

// fieldReader reads record fields out of a row. Each cell is coerced
// according to the type its schema column declares.
type fieldReader struct {
	cols    map[string]int
	types   map[string]string
	layouts []string
}

func newFieldReader(sch schema.Config, cols map[string]int) fieldReader {
	types := make(map[string]string, len(sch.Columns))
	for _, col := range sch.Columns {
		types[col.Field] = col.Type
	}
	return fieldReader{cols: cols, types: types, layouts: sch.Layouts()}
}

// Has reports whether the field's column is in the header.
func (r fieldReader) Has(field string) bool {
	_, ok := r.cols[field]
	return ok
}

// Text returns the cell as text. Int and date columns are canonicalized,
// so "12.0" reads as "12" and an unparseable value reads as "".
func (r fieldReader) Text(row []string, field string) string {
	switch r.types[field] {
	case schema.TypeInt:
		if n := r.Int(row, field); n.Valid {
			return strconv.Itoa(n.V)
		}
		return ""
	case schema.TypeDate:
		if t := r.Date(row, field); !t.IsZero() {
			return t.Format(time.DateOnly)
		}
		return ""
	default:
		return r.cell(row, field)
	}
}

// Int returns the cell as an integer. A date column yields its year.
func (r fieldReader) Int(row []string, field string) traffic.Int {
	if r.types[field] == schema.TypeDate {
		if t := r.Date(row, field); !t.IsZero() {
			return traffic.Some(t.Year())
		}
		return traffic.None
	}
	return parseInt(r.cell(row, field))
}

// Date returns the cell as a date. An int column holds spreadsheet serial
// day numbers.
func (r fieldReader) Date(row []string, field string) time.Time {
	raw := r.cell(row, field)
	if r.types[field] == schema.TypeInt {
		return parseSerialDate(raw)
	}
	return parseDate(raw, r.layouts)
}

func (r fieldReader) cell(row []string, field string) string {
	pos, ok := r.cols[field]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// ============================================================================
// FILE DISPATCH
// ============================================================================

// ReadRows reads a CSV or XLSX file by extension. sheet applies to XLSX only.
func ReadRows(path, sheet string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, sheet)
	default:
		return ReadCSV(f)
	}
}

// LoadAccidents reads an accident table from a CSV or XLSX file.
func LoadAccidents(path, sheet string, sch schema.Config) (*traffic.AccidentTable, error) {
	rows, err := ReadRows(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("load accidents: %w", err)
	}
	table, err := ParseAccidents(rows, sch)
	if err != nil {
		return nil, fmt.Errorf("load accidents: %w", err)
	}
	return table, nil
}

// LoadLicenses reads a license table from a CSV or XLSX file.
func LoadLicenses(path, sheet string, sch schema.Config, window DateWindow) (*traffic.LicenseTable, error) {
	rows, err := ReadRows(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("load licenses: %w", err)
	}
	table, err := ParseLicenses(rows, sch, window)
	if err != nil {
		return nil, fmt.Errorf("load licenses: %w", err)
	}
	return table, nil
}

// ============================================================================
// COERCION
// ============================================================================

// NormalizeZone turns "12", "12.0" and " 12 " into "12".
// Anything else, including an empty cell, is traffic.UnknownZone.
func NormalizeZone(raw string) string {
	raw = strings.TrimSpace(raw)
	digits := strings.ReplaceAll(raw, ".", "")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return traffic.UnknownZone
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return traffic.UnknownZone
	}
	return strconv.Itoa(int(f))
}

// parseInt accepts integers and integral floats ("2021", "2021.0").
func parseInt(raw string) traffic.Int {
	if raw == "" {
		return traffic.None
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return traffic.Some(n)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return traffic.None
	}
	return traffic.Some(int(f))
}

func parseDate(raw string, layouts []string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseSerialDate reads a spreadsheet serial day number ("44621", "44621.5").
func parseSerialDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}
	}
	return t
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

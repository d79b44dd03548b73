// Package traffic holds the typed record tables of the dashboard and the
// pure functions over them: metric reducers and chart series builders.
package traffic

import (
	"slices"
	"strconv"
	"time"

	"github.com/traffiq/traffiq/engine"
)

// Int is an integer field that may be absent from the source row.
// A value that failed numeric coercion is absent, never zero.
type Int struct {
	V     int
	Valid bool
}

// Some returns a present Int.
func Some(v int) Int { return Int{V: v, Valid: true} }

// None is the absent Int.
var None = Int{}

func (i Int) String() string {
	if !i.Valid {
		return ""
	}
	return strconv.Itoa(i.V)
}

// AccidentRecord is one row of the accident dataset.
type AccidentRecord struct {
	Year             Int
	DeathCount       Int
	AccidentNature   string
	AccidentReason   string
	NationalityGroup string
	Severity         string
	BirthYear        Int // of the perpetrator
	Zone             string
}

// LicenseRecord is one row of the license dataset.
type LicenseRecord struct {
	Year             Int
	Month            Int
	Gender           string
	NationalityGroup string
	Age              Int
	FirstIssueDate   time.Time // zero when absent
}

// IssueDay is the issue date truncated to the calendar day.
func (r LicenseRecord) IssueDay() (string, bool) {
	if r.FirstIssueDate.IsZero() {
		return "", false
	}
	return r.FirstIssueDate.Format("2006-01-02"), true
}

// ============================================================================
// TABLES — immutable after construction
// ============================================================================

// AccidentTable is the loaded accident dataset.
type AccidentTable struct {
	records []AccidentRecord
}

// NewAccidentTable copies records into a new table.
func NewAccidentTable(records []AccidentRecord) *AccidentTable {
	return &AccidentTable{records: slices.Clone(records)}
}

// Len returns the number of records.
func (t *AccidentTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records.
func (t *AccidentTable) Records() []AccidentRecord {
	if t == nil {
		return nil
	}
	return slices.Clone(t.records)
}

// Years returns the distinct accident years, ascending.
func (t *AccidentTable) Years() []int {
	if t == nil {
		return nil
	}
	years := make([]int, 0)
	for _, r := range t.records {
		if r.Year.Valid {
			years = append(years, r.Year.V)
		}
	}
	return sortedDistinct(years)
}

// Severities returns the distinct severity values, sorted.
func (t *AccidentTable) Severities() []string {
	return sortedValues(t.View(), KeySeverity)
}

// NationalityGroups returns the distinct nationality groups, sorted.
func (t *AccidentTable) NationalityGroups() []string {
	return sortedValues(t.View(), KeyNationalityGroup)
}

// LicenseTable is the loaded license dataset.
type LicenseTable struct {
	records []LicenseRecord
}

// NewLicenseTable copies records into a new table.
func NewLicenseTable(records []LicenseRecord) *LicenseTable {
	return &LicenseTable{records: slices.Clone(records)}
}

// Len returns the number of records.
func (t *LicenseTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records.
func (t *LicenseTable) Records() []LicenseRecord {
	if t == nil {
		return nil
	}
	return slices.Clone(t.records)
}

// Years returns the distinct license years, ascending.
func (t *LicenseTable) Years() []int {
	if t == nil {
		return nil
	}
	years := make([]int, 0)
	for _, r := range t.records {
		if r.Year.Valid {
			years = append(years, r.Year.V)
		}
	}
	return sortedDistinct(years)
}

// sortedValues lists the present values of a dimension. Empty cells and
// spreadsheet null spellings are left out.
func sortedValues(view engine.RecordView, dimension string) []string {
	out := make([]string, 0)
	for _, v := range engine.UniqueValues(view, dimension) {
		switch v {
		case "nan", "NaN", "None":
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func sortedDistinct(values []int) []int {
	slices.Sort(values)
	return slices.Compact(values)
}

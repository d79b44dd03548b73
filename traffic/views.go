package traffic

import (
	"strconv"

	"github.com/traffiq/traffiq/engine"
	"github.com/traffiq/traffiq/schema"
)

// Dimension and measure keys exposed to the engine.
const (
	KeyYear             = schema.FieldAccidentYear
	KeyMonth            = schema.FieldLicenseMonth
	KeySeverity         = schema.FieldSeverity
	KeyAccidentNature   = schema.FieldAccidentNature
	KeyAccidentReason   = schema.FieldAccidentReason
	KeyNationalityGroup = schema.FieldNationalityGroup
	KeyZone             = schema.FieldZone
	KeyGender           = schema.FieldGender
	KeyAge              = schema.FieldAge
	KeyIssueDay         = "issue_day"
	KeyDeaths           = "deaths"
	KeyBirthYear        = schema.FieldBirthYear
)

func text(s string) (string, bool) { return s, s != "" }

func intDim(i Int) (string, bool) { return i.String(), i.Valid }

func intMeasure(i Int) (float64, bool) { return float64(i.V), i.Valid }

var accidentAdapter = engine.NewDomainAdapter[AccidentRecord]().
	Dimension(KeyYear, func(r AccidentRecord) (string, bool) { return intDim(r.Year) }).
	Dimension(KeySeverity, func(r AccidentRecord) (string, bool) { return text(r.Severity) }).
	Dimension(KeyAccidentNature, func(r AccidentRecord) (string, bool) { return text(r.AccidentNature) }).
	Dimension(KeyAccidentReason, func(r AccidentRecord) (string, bool) { return text(r.AccidentReason) }).
	Dimension(KeyNationalityGroup, func(r AccidentRecord) (string, bool) { return text(r.NationalityGroup) }).
	Dimension(KeyZone, func(r AccidentRecord) (string, bool) { return text(r.Zone) }).
	Measure(KeyDeaths, func(r AccidentRecord) (float64, bool) { return intMeasure(r.DeathCount) }).
	Measure(KeyBirthYear, func(r AccidentRecord) (float64, bool) { return intMeasure(r.BirthYear) })

var licenseAdapter = engine.NewDomainAdapter[LicenseRecord]().
	Dimension(KeyYear, func(r LicenseRecord) (string, bool) { return intDim(r.Year) }).
	Dimension(KeyMonth, func(r LicenseRecord) (string, bool) { return intDim(r.Month) }).
	Dimension(KeyGender, func(r LicenseRecord) (string, bool) { return text(r.Gender) }).
	Dimension(KeyNationalityGroup, func(r LicenseRecord) (string, bool) { return text(r.NationalityGroup) }).
	Dimension(KeyAge, func(r LicenseRecord) (string, bool) { return intDim(r.Age) }).
	Dimension(KeyIssueDay, LicenseRecord.IssueDay).
	Measure(KeyAge, func(r LicenseRecord) (float64, bool) { return intMeasure(r.Age) })

var ageAdapter = engine.NewDomainAdapter[int]().
	Dimension(KeyAge, func(age int) (string, bool) { return strconv.Itoa(age), true }).
	Measure(KeyAge, func(age int) (float64, bool) { return float64(age), true })

// AccidentView binds accident records to the engine. Zero-copy.
func AccidentView(records []AccidentRecord) engine.RecordView {
	return accidentAdapter.Bind(records)
}

// LicenseView binds license records to the engine. Zero-copy.
func LicenseView(records []LicenseRecord) engine.RecordView {
	return licenseAdapter.Bind(records)
}

// View binds the table's records to the engine.
func (t *AccidentTable) View() engine.RecordView {
	if t == nil {
		return AccidentView(nil)
	}
	return AccidentView(t.records)
}

// View binds the table's records to the engine.
func (t *LicenseTable) View() engine.RecordView {
	if t == nil {
		return LicenseView(nil)
	}
	return LicenseView(t.records)
}

func yearView(view engine.RecordView, year int) engine.RecordView {
	want := strconv.Itoa(year)
	return engine.Where(view, func(i int) bool {
		y, ok := view.Dimension(i, KeyYear)
		return ok && y == want
	})
}

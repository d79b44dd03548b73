package schema

// ============================================================================
// SCHEMA — Describes how a source table maps onto typed records
// ============================================================================
// The loader uses the schema to find each record field in the header row.
// Defaults match the Qatar open-data exports the dashboard was built for;
// a JSON schema file can rename any column without touching code.
// ============================================================================

// Field types.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeDate   = "date"
)

// Dataset names.
const (
	DatasetAccidents = "accidents"
	DatasetLicenses  = "licenses"
)

// Accident record fields.
const (
	FieldAccidentYear     = "year"
	FieldDeathCount       = "death_count"
	FieldAccidentNature   = "accident_nature"
	FieldAccidentReason   = "accident_reason"
	FieldNationalityGroup = "nationality_group"
	FieldSeverity         = "severity"
	FieldBirthYear        = "birth_year"
	FieldZone             = "zone"
)

// License record fields.
const (
	FieldLicenseYear    = "year"
	FieldLicenseMonth   = "month"
	FieldGender         = "gender"
	FieldAge            = "age"
	FieldFirstIssueDate = "first_issue_date"
)

// Config describes one dataset's columns.
type Config struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Columns     []ColumnMeta `json:"columns"`

	// DateLayouts are tried in order when parsing date columns.
	DateLayouts []string `json:"dateLayouts,omitempty"`
}

// ColumnMeta binds a record field to a source column.
type ColumnMeta struct {
	Field       string   `json:"field"`
	Header      string   `json:"header"`
	Aliases     []string `json:"aliases,omitempty"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	DisplayName string   `json:"displayName,omitempty"`
}

// Set holds the schema of both datasets.
type Set struct {
	Accidents Config `json:"accidents"`
	Licenses  Config `json:"licenses"`
}

// DefaultDateLayouts covers the exports seen so far.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"1/2/2006 15:04",
	"02/01/2006",
}

// DefaultAccidents is the schema of the accident export (facc.csv).
func DefaultAccidents() Config {
	return Config{
		Name:        DatasetAccidents,
		Description: "Traffic accidents, one row per accident",
		Columns: []ColumnMeta{
			{Field: FieldAccidentYear, Header: "ACCIDENT_YEAR", Type: TypeInt, Required: true},
			{Field: FieldDeathCount, Header: "DEATH_COUNT", Aliases: []string{"NUMBER_OF_DEATHS", "DEATHS"}, Type: TypeInt},
			{Field: FieldAccidentNature, Header: "ACCIDENT_NATURE", Type: TypeString},
			{Field: FieldAccidentReason, Header: "ACCIDENT_REASON", Type: TypeString},
			{Field: FieldNationalityGroup, Header: "NATIONALITY_GROUP_OF_ACCIDENT_", Aliases: []string{"NATIONALITY_GROUP"}, Type: TypeString},
			{Field: FieldSeverity, Header: "ACCIDENT_SEVERITY", Type: TypeString},
			{Field: FieldBirthYear, Header: "BIRTH_YEAR_OF_ACCIDENT_PERPETR", Aliases: []string{"BIRTH_YEAR"}, Type: TypeInt},
			{Field: FieldZone, Header: "ZONE", Type: TypeString},
		},
	}
}

// DefaultLicenses is the schema of the license export (liz.csv).
// YEAR, MONTH and AGE are usually absent and derived from FIRST_ISSUEDATE
// and BIRTHYEAR by the loader.
func DefaultLicenses() Config {
	return Config{
		Name:        DatasetLicenses,
		Description: "Driving licenses, one row per first issue",
		Columns: []ColumnMeta{
			{Field: FieldFirstIssueDate, Header: "FIRST_ISSUEDATE", Aliases: []string{"FIRST_ISSUE_DATE"}, Type: TypeDate, Required: true},
			{Field: FieldGender, Header: "GENDER", Type: TypeString},
			{Field: FieldNationalityGroup, Header: "NATIONALITY_GROUP", Type: TypeString},
			{Field: FieldBirthYear, Header: "BIRTHYEAR", Aliases: []string{"BIRTH_YEAR"}, Type: TypeInt},
			{Field: FieldAge, Header: "AGE", Type: TypeInt},
			{Field: FieldLicenseYear, Header: "YEAR", Type: TypeInt},
			{Field: FieldLicenseMonth, Header: "MONTH", Type: TypeInt},
		},
	}
}

// DefaultSet returns the default schema of both datasets.
func DefaultSet() Set {
	return Set{Accidents: DefaultAccidents(), Licenses: DefaultLicenses()}
}

// Column returns the column bound to a field.
func (c Config) Column(field string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Field == field {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// Layouts returns the configured date layouts, or the defaults.
func (c Config) Layouts() []string {
	if len(c.DateLayouts) > 0 {
		return c.DateLayouts
	}
	return DefaultDateLayouts
}

// Label returns a human-readable name for a field.
func (c Config) Label(field string) string {
	if col, ok := c.Column(field); ok && col.DisplayName != "" {
		return col.DisplayName
	}
	return toDisplayName(field)
}

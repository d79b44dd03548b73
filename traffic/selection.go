package traffic

import (
	"fmt"

	"github.com/traffiq/traffiq/engine"
)

// Category is a selectable grouping dimension.
type Category string

const (
	CategoryNationalityGroup Category = "nationality-group"
	CategoryAccidentNature   Category = "accident-nature"
	CategoryAccidentReason   Category = "accident-reason"
	CategoryGender           Category = "gender"
)

// SeverityCategories is the domain of the severity chart's category selector.
var SeverityCategories = []Category{
	CategoryNationalityGroup,
	CategoryAccidentNature,
	CategoryAccidentReason,
}

// LicenseCategories is the domain of the license chart's category selector.
var LicenseCategories = []Category{
	CategoryGender,
	CategoryNationalityGroup,
}

// Key returns the record dimension the category groups by.
func (c Category) Key() string {
	switch c {
	case CategoryNationalityGroup:
		return KeyNationalityGroup
	case CategoryAccidentNature:
		return KeyAccidentNature
	case CategoryAccidentReason:
		return KeyAccidentReason
	case CategoryGender:
		return KeyGender
	}
	return ""
}

// Label is the display name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryNationalityGroup:
		return "Nationality Group"
	case CategoryAccidentNature:
		return "Accident Nature"
	case CategoryAccidentReason:
		return "Accident Reason"
	case CategoryGender:
		return "Gender"
	}
	return string(c)
}

// ParseCategory validates s against a category domain.
func ParseCategory(s string, domain []Category) (Category, error) {
	for _, c := range domain {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("category %q not in %v", s, domain)
}

// Selection is the current set of user-chosen values.
// Builders read it by value and never retain it.
type Selection struct {
	AccidentYear     int      `json:"accidentYear"`
	SeverityCategory Category `json:"severityCategory"`
	LicenseCategory  Category `json:"licenseCategory"`
	LicenseYear      int      `json:"licenseYear"`

	// Severity and nationality filters of the trend charts. Empty means all.
	SeverityFilter    []string `json:"severityFilter,omitempty"`
	NationalityFilter []string `json:"nationalityFilter,omitempty"`
}

// AccidentFilters returns the trend-chart filters as engine filters.
func (s Selection) AccidentFilters() engine.Filters {
	dims := make(map[string][]string, 2)
	if len(s.SeverityFilter) > 0 {
		dims[KeySeverity] = s.SeverityFilter
	}
	if len(s.NationalityFilter) > 0 {
		dims[KeyNationalityGroup] = s.NationalityFilter
	}
	return engine.Filters{Dimensions: dims}
}

// DefaultSelection has the category defaults and no years.
func DefaultSelection() Selection {
	return Selection{
		SeverityCategory: CategoryNationalityGroup,
		LicenseCategory:  CategoryGender,
	}
}

package dashboard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

var (
	// ErrNotReady is returned for events on a control whose dataset has not loaded.
	ErrNotReady = errors.New("control not ready")
	// ErrInvalidSelection is returned for values outside a control's domain.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrUnknownControl is returned for control names the dashboard does not have.
	ErrUnknownControl = errors.New("unknown control")
	// ErrHandlerPanic is returned when handling an event panicked.
	ErrHandlerPanic = errors.New("event handler panicked")
)

// Control names a user-facing selector.
type Control string

const (
	ControlAccidentYear     Control = "accident-year"
	ControlSeverityCategory Control = "severity-category"
	ControlLicenseCategory  Control = "license-category"
	ControlLicenseYear      Control = "license-year"

	// Multi-value filters of the trend charts. The value is a comma-separated
	// list; an empty value clears the filter.
	ControlSeverityFilter    Control = "severity-filter"
	ControlNationalityFilter Control = "nationality-filter"
)

// Controls lists every selector in display order.
var Controls = []Control{
	ControlAccidentYear,
	ControlSeverityCategory,
	ControlLicenseCategory,
	ControlLicenseYear,
	ControlSeverityFilter,
	ControlNationalityFilter,
}

// ParseControl resolves a control name.
func ParseControl(s string) (Control, error) {
	c := Control(s)
	if _, ok := dependencies[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownControl, s)
	}
	return c, nil
}

// ============================================================================
// DEPENDENCY TABLE — control → outputs it redraws
// ============================================================================

// Dependency lists the outputs recomputed when a control changes.
type Dependency struct {
	Dataset  string            `json:"dataset"`
	Charts   []traffic.ChartID `json:"charts"`
	Fragment bool              `json:"fragment"` // the year's map fragment
}

var dependencies = map[Control]Dependency{
	ControlAccidentYear: {
		Dataset:  schema.DatasetAccidents,
		Charts:   []traffic.ChartID{traffic.ChartAccidentAgeScatter, traffic.ChartZonesByYear},
		Fragment: true,
	},
	ControlSeverityCategory: {
		Dataset: schema.DatasetAccidents,
		Charts:  []traffic.ChartID{traffic.ChartSeverityByCategory},
	},
	ControlLicenseCategory: {
		Dataset: schema.DatasetLicenses,
		Charts:  []traffic.ChartID{traffic.ChartLicenseByCategory},
	},
	ControlLicenseYear: {
		Dataset: schema.DatasetLicenses,
		Charts:  []traffic.ChartID{traffic.ChartLicenseByCategory},
	},
	ControlSeverityFilter: {
		Dataset: schema.DatasetAccidents,
		Charts:  []traffic.ChartID{traffic.ChartYearlyTrend, traffic.ChartTopZones},
	},
	ControlNationalityFilter: {
		Dataset: schema.DatasetAccidents,
		Charts:  []traffic.ChartID{traffic.ChartYearlyTrend, traffic.ChartTopZones},
	},
}

// Dependents returns what a control redraws.
func Dependents(c Control) (Dependency, error) {
	dep, ok := dependencies[c]
	if !ok {
		return Dependency{}, fmt.Errorf("%w: %q", ErrUnknownControl, c)
	}
	dep.Charts = slices.Clone(dep.Charts)
	return dep, nil
}

// Domain is the current state of one selector. For a multi-value selector
// Value joins the chosen values with commas and is empty when none is chosen.
type Domain struct {
	Control Control  `json:"control"`
	Values  []string `json:"values"`
	Value   string   `json:"value"`
	Multi   bool     `json:"multi,omitempty"`
	Enabled bool     `json:"enabled"`
}

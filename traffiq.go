// Package traffiq is a traffic-accident and driving-license dashboard.
//
// Usage:
//
//	import (
//	    "github.com/traffiq/traffiq/dashboard"
//	    "github.com/traffiq/traffiq/helpers"
//	    "github.com/traffiq/traffiq/render"
//	)
//
//	table, err := helpers.LoadAccidents("facc.csv", "", schema.DefaultAccidents())
//	ctrl := dashboard.New(render.NewPlotRenderer("out"))
//	ctrl.LoadAccidents(ctx, table)
//	ctrl.Select(ctx, dashboard.ControlAccidentYear, "2021")
//
// Records are loaded once into immutable tables (traffic). The engine
// aggregates them into chart series; the dashboard controller keeps every
// chart consistent with the current selection and redraws only what a
// changed control affects. All computation is local; map fragments are the
// only thing fetched from outside.
package traffiq

package engine

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// Matching is exact: dataset vocabularies are fixed upstream.
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// A record with an absent filtered dimension never matches.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	return Where(view, func(i int) bool {
		for dim, set := range sets {
			val, ok := view.Dimension(i, dim)
			if !ok || !set[val] {
				return false
			}
		}
		return true
	})
}

// Where returns a view of the records for which keep returns true.
// keep receives indices into view.
func Where(view RecordView, keep func(i int) bool) RecordView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// WhereMeasure keeps records whose measure is present and satisfies pred.
func WhereMeasure(view RecordView, measure string, pred func(v float64) bool) RecordView {
	return Where(view, func(i int) bool {
		v, ok := view.Measure(i, measure)
		return ok && pred(v)
	})
}

// Exclude drops records whose dimension equals one of values.
// Records with the dimension absent are kept.
func Exclude(view RecordView, dimension string, values ...string) RecordView {
	set := toSet(values)
	return Where(view, func(i int) bool {
		val, ok := view.Dimension(i, dimension)
		return !ok || !set[val]
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

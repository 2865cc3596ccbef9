// Package authority selects and ranks the reports an authority account sees
// on its dashboard.
package authority

import (
	"sort"

	"ciudamos/classify"
	"ciudamos/types"
)

// UrgencyAll disables the urgency post filter.
const UrgencyAll = "ALL"

var wildcards = map[string]bool{
	"todos": true,
	"all":   true,
	"*":     true,
}

// Dashboard is the filtered view for one authority.
type Dashboard struct {
	// Assigned counts the reports matching the authority's areas, before the
	// urgency filter is applied.
	Assigned int            `json:"assigned"`
	Reports  []types.Report `json:"reports"`
}

// SortByRecency returns a copy of reports ordered newest first. Timestamps are
// compared as ISO strings; reports without one sort last and keep their
// relative order.
func SortByRecency(reports []types.Report) []types.Report {
	sorted := make([]types.Report, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	return sorted
}

// MatchesAreas reports whether r belongs to one of the folded allowed areas.
// Untagged reports match every authority so unclassified incidents stay
// visible.
func MatchesAreas(r types.Report, allowed map[string]bool) bool {
	if r.Untagged() {
		return true
	}
	for _, field := range []string{string(r.Category), r.Title, r.Area} {
		if field == "" {
			continue
		}
		if allowed[classify.Fold(field)] {
			return true
		}
	}
	return false
}

// Filter applies the area and urgency rules to the full report list.
func Filter(reports []types.Report, areas []string, urgency string) Dashboard {
	sorted := SortByRecency(reports)

	base := sorted
	if allowed, open := allowedSet(areas); !open {
		base = make([]types.Report, 0, len(sorted))
		for _, r := range sorted {
			if MatchesAreas(r, allowed) {
				base = append(base, r)
			}
		}
	}

	dash := Dashboard{Assigned: len(base), Reports: base}

	want, ok := urgencyFilter(urgency)
	if !ok {
		return dash
	}
	filtered := make([]types.Report, 0, len(base))
	for _, r := range base {
		if classify.InferReportUrgency(r) == want {
			filtered = append(filtered, r)
		}
	}
	dash.Reports = filtered
	return dash
}

// allowedSet folds the allowed areas. open is true when no filtering applies.
func allowedSet(areas []string) (allowed map[string]bool, open bool) {
	if len(areas) == 0 {
		return nil, true
	}
	allowed = make(map[string]bool, len(areas))
	for _, a := range areas {
		f := classify.Fold(a)
		if wildcards[f] {
			return nil, true
		}
		if f != "" {
			allowed[f] = true
		}
	}
	return allowed, false
}

// urgencyFilter returns the level to keep and whether filtering applies. An
// unrecognised value filters with the empty level, which no report carries.
func urgencyFilter(value string) (types.Urgency, bool) {
	switch classify.Fold(value) {
	case "", "all", "todas":
		return "", false
	}
	u, _ := classify.CanonicalUrgency(value)
	return u, true
}

package authority

import (
	"testing"

	"ciudamos/types"
)

func sample() []types.Report {
	return []types.Report{
		{ID: "a", Title: "Infraestructura", Category: types.CategoryInfrastructure, Description: "bache", Timestamp: "2024-05-01T10:00:00.000Z"},
		{ID: "b", Title: "Seguridad", Category: types.CategorySecurity, Description: "asalto con arma", Timestamp: "2024-05-03T10:00:00.000Z"},
		{ID: "c"},
		{ID: "d", Title: "Ambiente", Area: "Medio Ambiente", Description: "ruido", Timestamp: "2024-05-02T10:00:00.000Z"},
		{ID: "e", Title: "Movilidad", Area: "Movilidad", Urgency: types.UrgencyHigh, Timestamp: "2024-04-30T10:00:00.000Z"},
	}
}

func ids(reports []types.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortByRecency(t *testing.T) {
	in := sample()
	got := ids(SortByRecency(in))
	want := []string{"b", "d", "a", "e", "c"}
	if !equal(got, want) {
		t.Fatalf("SortByRecency = %v, want %v", got, want)
	}
	if in[0].ID != "a" {
		t.Fatal("SortByRecency modified its input")
	}
}

func TestSortByRecencyStableWithoutTimestamps(t *testing.T) {
	in := []types.Report{{ID: "x"}, {ID: "y"}, {ID: "z", Timestamp: "2024-01-01T00:00:00.000Z"}, {ID: "w"}}
	got := ids(SortByRecency(in))
	want := []string{"z", "x", "y", "w"}
	if !equal(got, want) {
		t.Fatalf("SortByRecency = %v, want %v", got, want)
	}
}

func TestFilterWildcard(t *testing.T) {
	for _, areas := range [][]string{{"todos"}, {"ALL"}, {"*"}, {"Seguridad", " Todos "}, nil, {}} {
		dash := Filter(sample(), areas, UrgencyAll)
		if len(dash.Reports) != 5 || dash.Assigned != 5 {
			t.Errorf("Filter(%q) returned %v", areas, ids(dash.Reports))
		}
	}
}

func TestFilterAreas(t *testing.T) {
	dash := Filter(sample(), []string{"seguridad", "Medio ambiente"}, "")
	got := ids(dash.Reports)
	want := []string{"b", "d", "c"}
	if !equal(got, want) {
		t.Fatalf("Filter = %v, want %v", got, want)
	}
	if dash.Assigned != 3 {
		t.Fatalf("Assigned = %d, want 3", dash.Assigned)
	}
}

func TestFilterDiacritics(t *testing.T) {
	reports := []types.Report{{ID: "m", Title: "Tránsito", Area: "Vía Pública"}}
	dash := Filter(reports, []string{"via publica"}, "ALL")
	if len(dash.Reports) != 1 {
		t.Fatalf("expected diacritic-insensitive match, got %v", ids(dash.Reports))
	}
}

func TestFilterUntaggedFailsOpen(t *testing.T) {
	for _, areas := range [][]string{{"Infraestructura"}, {"Emergencias"}, {"nada"}} {
		dash := Filter(sample(), areas, "ALL")
		found := false
		for _, r := range dash.Reports {
			if r.ID == "c" {
				found = true
			}
		}
		if !found {
			t.Errorf("untagged report hidden for areas %q", areas)
		}
	}
}

func TestFilterUrgency(t *testing.T) {
	tests := []struct {
		urgency  string
		want     []string
		assigned int
	}{
		{"ALL", []string{"b", "d", "a", "e", "c"}, 5},
		{"todas", []string{"b", "d", "a", "e", "c"}, 5},
		{"Alta", []string{"b", "e"}, 5},
		{"media", []string{"a"}, 5},
		{"Baja", []string{"d", "c"}, 5},
	}
	for _, tt := range tests {
		dash := Filter(sample(), []string{"todos"}, tt.urgency)
		if got := ids(dash.Reports); !equal(got, tt.want) {
			t.Errorf("urgency %q: got %v, want %v", tt.urgency, got, tt.want)
		}
		if dash.Assigned != tt.assigned {
			t.Errorf("urgency %q: assigned %d, want %d", tt.urgency, dash.Assigned, tt.assigned)
		}
	}
}

func TestFilterUnknownUrgencyMatchesNothing(t *testing.T) {
	for _, urgency := range []string{"critica", "URGENTE", "máxima"} {
		for _, areas := range [][]string{nil, {"Infraestructura"}} {
			dash := Filter(sample(), areas, urgency)
			if len(dash.Reports) != 0 {
				t.Errorf("urgency %q areas %v: expected no reports, got %v", urgency, areas, ids(dash.Reports))
			}
			if all := Filter(sample(), areas, UrgencyAll); dash.Assigned != all.Assigned {
				t.Errorf("urgency %q areas %v: assigned %d, want %d", urgency, areas, dash.Assigned, all.Assigned)
			}
		}
	}
}

package classify

import (
	"testing"

	"ciudamos/types"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Category
	}{
		{name: "empty", input: "", want: ""},
		{name: "blank", input: "   ", want: ""},
		{name: "keyword priority infrastructure over mobility", input: "bache cerca de un choque", want: types.CategoryInfrastructure},
		{name: "plural stem", input: "Postes caídos en la esquina", want: types.CategoryInfrastructure},
		{name: "health", input: "Acumulación de basura", want: types.CategoryHealth},
		{name: "security", input: "Robo a transeúnte", want: types.CategorySecurity},
		{name: "mobility with accent", input: "Semáforo descompuesto", want: types.CategoryMobility},
		{name: "environment", input: "Humo negro de una fábrica", want: types.CategoryEnvironment},
		{name: "emergency", input: "Incendio en bodega", want: types.CategoryEmergency},
		{name: "english pothole", input: "Large pothole on 5th street", want: types.CategoryInfrastructure},
		{name: "street does not match tree", input: "street", want: ""},
		{name: "exact canonical", input: "infraestructura", want: types.CategoryInfrastructure},
		{name: "exact canonical mixed case", input: "SEGURIDAD", want: types.CategorySecurity},
		{name: "exact movilidad", input: "Movilidad", want: types.CategoryMobility},
		{name: "plural emergencias", input: "Emergencias", want: types.CategoryEmergency},
		{name: "four option schema label", input: "Medio ambiente", want: types.CategoryEnvironment},
		{name: "english synonym", input: "environment", want: types.CategoryEnvironment},
		{name: "english security", input: "Security", want: types.CategorySecurity},
		{name: "unknown", input: "algo raro", want: ""},
		{name: "robot is not robo", input: "robot abandonado", want: ""},
		{name: "postal is not poste", input: "oficina postal cerrada", want: ""},
		{name: "humor is not humo", input: "mal humor del vecino", want: ""},
		{name: "talanquera is not tala", input: "talanquera abierta", want: ""},
		{name: "emergency english plural", input: "fires in the park", want: types.CategoryEmergency},
		{name: "security inflection", input: "Auto robado en la esquina", want: types.CategorySecurity},
		{name: "mobility plural", input: "Choques en el cruce", want: types.CategoryMobility},
		{name: "environment plural", input: "Árboles caídos", want: types.CategoryEnvironment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategory(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeCategory(tt.input); again != got {
				t.Errorf("NormalizeCategory(%q) not deterministic: %q then %q", tt.input, got, again)
			}
		})
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Inundación ÁREA "); got != "inundacion area" {
		t.Errorf("Fold() = %q", got)
	}
	if got := Fold("niño"); got != "nino" {
		t.Errorf("Fold() = %q", got)
	}
}

// Package classify holds the rule-based decisions applied to report drafts:
// category normalization, urgency inference and AI pre-fill reconciliation.
package classify

import (
	"regexp"

	"ciudamos/types"
)

type keywordGroup struct {
	category types.Category
	pattern  *regexp.Regexp
}

// Patterns run against folded text, so keywords are written without accents.
// Every keyword lists its inflections so longer words never match ("robot" is not "robo").
var keywordGroups = []keywordGroup{
	{types.CategoryInfrastructure, regexp.MustCompile(`\b(?:baches?|banquetas?|aceras?|alcantarill(?:as?|ados?)|coladeras?|postes?|pavimentos?|drenajes?|potholes?|sidewalks?|sewers?|poles?|pavement|drains?)\b`)},
	{types.CategoryHealth, regexp.MustCompile(`\b(?:salubridad|basuras?|basureros?|desechos?|plagas?|agua estancada|insalubres?|insalubridad|sanitation|waste|garbage|trash|pests?)\b`)},
	{types.CategorySecurity, regexp.MustCompile(`\b(?:robos?|robad[oa]s?|vandalismo|vandalizad[oa]s?|violencia|violent[oa]s?|sospechos[oa]s?|delitos?|delincuencia|delincuentes?|asaltos?|asaltad[oa]s?|theft|vandalism|violence|suspicious|crimes?|assaults?|assaulted)\b`)},
	{types.CategoryMobility, regexp.MustCompile(`\b(?:trafico|transito|transportes?|semaforos?|estacionamientos?|vialidad(?:es)?|choques?|traffic|transit|transport|signals?|parking|roads?)\b`)},
	{types.CategoryEnvironment, regexp.MustCompile(`\b(?:contaminacion|contaminad[oa]s?|humo|ruidos?|arbol(?:es)?|tala|fauna|quemas?|pollution|smoke|noise|trees?|wildlife)\b`)},
	{types.CategoryEmergency, regexp.MustCompile(`\b(?:incendios?|fuegos?|colision(?:es)?|inundacion(?:es)?|inundad[oa]s?|accidentes?|rescates?|emergencias?|fires?|collisions?|floods?|flooding|accidents?|rescues?)\b`)},
}

var synonyms = map[string]types.Category{
	"infrastructure":    types.CategoryInfrastructure,
	"infraestructura":   types.CategoryInfrastructure,
	"health":            types.CategoryHealth,
	"sanidad":           types.CategoryHealth,
	"salud":             types.CategoryHealth,
	"health/sanitation": types.CategoryHealth,
	"security":          types.CategorySecurity,
	"safety":            types.CategorySecurity,
	"mobility":          types.CategoryMobility,
	"movilidad urbana":  types.CategoryMobility,
	"environment":       types.CategoryEnvironment,
	"medio ambiente":    types.CategoryEnvironment,
	"ambiental":         types.CategoryEnvironment,
	"emergency":         types.CategoryEmergency,
	"emergencies":       types.CategoryEmergency,
	"emergencia":        types.CategoryEmergency,
}

// NormalizeCategory maps free text to a canonical category. It returns ""
// when nothing matches with confidence; callers must ask the user instead of
// guessing.
func NormalizeCategory(text string) types.Category {
	folded := Fold(text)
	if folded == "" {
		return ""
	}

	for _, g := range keywordGroups {
		if g.pattern.MatchString(folded) {
			return g.category
		}
	}

	for _, c := range types.Categories {
		if Fold(string(c)) == folded {
			return c
		}
	}

	if c, ok := synonyms[folded]; ok {
		return c
	}
	return ""
}

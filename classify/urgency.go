package classify

import (
	"regexp"

	"ciudamos/types"
)

var (
	highUrgency   = regexp.MustCompile(`\b(?:balaceras?|disparos?|armas?|armad[oa]s?|incendios?|fuegos?|herid[oa]s?|asaltos?|asaltad[oa]s?|explosion(?:es)?|derrumbes?|gunfire|weapons?|fires?|injured|injury|injuries|assaults?|assaulted|collapsed?)\b`)
	mediumUrgency = regexp.MustCompile(`\b(?:baches?|fugas?|luz|luces|semaforos?|postes?|accidentes?|inundacion(?:es)?|choques?|potholes?|leaks?|light outages?|traffic signals?|poles?|accidents?|flooding|crash(?:es)?)\b`)
)

// CanonicalUrgency matches explicit values case-insensitively, so the
// upper-case levels written by older dashboards ("ALTA") are accepted.
func CanonicalUrgency(value string) (types.Urgency, bool) {
	switch Fold(value) {
	case "alta", "high":
		return types.UrgencyHigh, true
	case "media", "medium":
		return types.UrgencyMedium, true
	case "baja", "low":
		return types.UrgencyLow, true
	}
	return "", false
}

// InferUrgency trusts an explicit level and otherwise applies keyword
// heuristics to title and description. It never fails; the fallback is Baja.
func InferUrgency(explicit, title, description string) types.Urgency {
	if u, ok := CanonicalUrgency(explicit); ok {
		return u
	}

	text := Fold(title + " " + description)
	switch {
	case highUrgency.MatchString(text):
		return types.UrgencyHigh
	case mediumUrgency.MatchString(text):
		return types.UrgencyMedium
	}
	return types.UrgencyLow
}

// InferReportUrgency applies InferUrgency to a stored report. The category
// takes part in the text so legacy records with the class in Title and new
// ones with a separate Category behave alike.
func InferReportUrgency(r types.Report) types.Urgency {
	title := r.Title
	if r.Category != "" && Fold(r.Title) != Fold(string(r.Category)) {
		title = string(r.Category) + " " + r.Title
	}
	return InferUrgency(string(r.Urgency), title, r.Description)
}

// PinColor is the map marker hint for an urgency level.
func PinColor(u types.Urgency) string {
	switch u {
	case types.UrgencyHigh:
		return "red"
	case types.UrgencyMedium:
		return "orange"
	case types.UrgencyLow:
		return "yellow"
	}
	return "blue"
}

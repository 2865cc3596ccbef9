package types

// Category is one of the canonical incident classes used to route reports to authorities.
type Category string

const (
	CategoryInfrastructure Category = "Infraestructura"
	CategoryHealth         Category = "Salubridad"
	CategorySecurity       Category = "Seguridad"
	CategoryMobility       Category = "Movilidad"
	CategoryEnvironment    Category = "Ambiente"
	CategoryEmergency      Category = "Emergencias"
)

// Categories lists the canonical set in keyword priority order.
var Categories = []Category{
	CategoryInfrastructure,
	CategoryHealth,
	CategorySecurity,
	CategoryMobility,
	CategoryEnvironment,
	CategoryEmergency,
}

type Urgency string

const (
	UrgencyHigh   Urgency = "Alta"
	UrgencyMedium Urgency = "Media"
	UrgencyLow    Urgency = "Baja"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusSeen       Status = "SEEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Rank orders statuses along the report lifecycle. Unknown values rank below NEW.
func (s Status) Rank() int {
	switch s {
	case StatusNew, "":
		return 0
	case StatusSeen:
		return 1
	case StatusInProgress:
		return 2
	case StatusDone:
		return 3
	}
	return -1
}

// Valid reports whether s is one of the lifecycle statuses.
func (s Status) Valid() bool {
	return s.Rank() >= 0 && s != ""
}

// Report is a citizen incident record. Title is the display title and
// Category the canonical class; older records carry the class in Title only.
type Report struct {
	ID          string   `json:"id" firestore:"id"`
	Latitude    float64  `json:"latitude" firestore:"latitude"`
	Longitude   float64  `json:"longitude" firestore:"longitude"`
	Title       string   `json:"title,omitempty" firestore:"title,omitempty"`
	Category    Category `json:"category,omitempty" firestore:"category,omitempty"`
	Description string   `json:"description,omitempty" firestore:"description,omitempty"`
	PhotoURI    string   `json:"photoUri,omitempty" firestore:"photoUri,omitempty"`
	Color       string   `json:"color,omitempty" firestore:"color,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty" firestore:"timestamp,omitempty"` // ISO-8601 UTC
	Status      Status   `json:"status,omitempty" firestore:"status,omitempty"`
	Area        string   `json:"area,omitempty" firestore:"area,omitempty"`
	EvidenceURI string   `json:"evidenceUri,omitempty" firestore:"evidenceUri,omitempty"`
	Urgency     Urgency  `json:"urgency,omitempty" firestore:"urgency,omitempty"`
	Address     string   `json:"address,omitempty" firestore:"address,omitempty"`
}

// CurrentStatus returns the status, treating an unset one as NEW.
func (r Report) CurrentStatus() Status {
	if r.Status == "" {
		return StatusNew
	}
	return r.Status
}

// Untagged reports carry no category, title or area.
func (r Report) Untagged() bool {
	return r.Category == "" && r.Title == "" && r.Area == ""
}

package types

// AIResult is the vision model's classification of a report photo.
// Field order matches the wire payload.
type AIResult struct {
	Categoria   string  `json:"categoria"`
	Gravedad    string  `json:"gravedad"`
	Descripcion string  `json:"descripcion"`
	Confianza   float64 `json:"confianza"`
}

// Draft is a report being filled by a citizen, possibly pre-filled by AI.
type Draft struct {
	Category    Category `json:"category"`
	Urgency     Urgency  `json:"urgency"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	// NeedsReview is set when the user must double check the fields
	// before submitting.
	NeedsReview bool `json:"needsReview"`
	// RawCategory is the model's label before normalization.
	RawCategory string `json:"rawCategory,omitempty"`
}

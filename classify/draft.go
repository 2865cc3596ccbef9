package classify

import (
	"errors"
	"strings"

	"ciudamos/types"
)

// LowConfidence is the threshold under which the user is prompted to double
// check AI-filled fields. It is advisory and never blocks submission.
const LowConfidence = 0.55

var ErrCategoryRequired = errors.New("category must be confirmed before submitting")

// DraftFromAI reconciles a model result into canonical draft fields.
func DraftFromAI(res types.AIResult) types.Draft {
	category := NormalizeCategory(res.Categoria)
	d := types.Draft{
		Category:    category,
		Urgency:     InferUrgency(res.Gravedad, string(category), res.Descripcion),
		Description: strings.TrimSpace(res.Descripcion),
		Confidence:  res.Confianza,
		RawCategory: res.Categoria,
	}
	d.NeedsReview = category == "" || res.Confianza < LowConfidence
	return d
}

// Overrides are the fields the citizen edited on top of the draft.
type Overrides struct {
	Title       string
	Category    string
	Urgency     string
	Description string
	Area        string
}

// ConfirmDraft builds the report to persist from a draft and the user's
// edits. Manual category text goes through NormalizeCategory as well; if no
// category results, ErrCategoryRequired is returned.
func ConfirmDraft(d types.Draft, lat, lon float64, photoURI string, o Overrides) (types.Report, error) {
	category := d.Category
	if strings.TrimSpace(o.Category) != "" {
		category = NormalizeCategory(o.Category)
	}
	if category == "" {
		return types.Report{}, ErrCategoryRequired
	}

	description := d.Description
	if strings.TrimSpace(o.Description) != "" {
		description = strings.TrimSpace(o.Description)
	}

	explicit := string(d.Urgency)
	if strings.TrimSpace(o.Urgency) != "" {
		explicit = o.Urgency
	}
	title := strings.TrimSpace(o.Title)
	if title == "" {
		title = string(category)
	}
	urgency := InferUrgency(explicit, title, description)

	area := strings.TrimSpace(o.Area)
	if area == "" {
		area = string(category)
	}

	return types.Report{
		Latitude:    lat,
		Longitude:   lon,
		Title:       title,
		Category:    category,
		Description: description,
		PhotoURI:    photoURI,
		Color:       PinColor(urgency),
		Status:      types.StatusNew,
		Area:        area,
		Urgency:     urgency,
	}, nil
}

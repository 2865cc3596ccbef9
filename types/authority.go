package types

// Authority is an account allowed to triage reports for a set of areas.
type Authority struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Email string   `json:"email,omitempty" yaml:"email,omitempty"`
	Areas []string `json:"areas" yaml:"areas"`
}

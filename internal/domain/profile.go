package domain

// Profile holds the optional student identity supplied at session start.
// A nil profile means the student chose to remain anonymous. The profile
// is immutable for the lifetime of the session.
type Profile struct {
	Name    string `json:"name"`
	Major   string `json:"major"`
	Quarter string `json:"quarter"`
}

// Valid reports whether all profile fields are present.
func (p *Profile) Valid() bool {
	return p != nil && p.Name != "" && p.Major != "" && p.Quarter != ""
}

package entity

// EvidenceFragment is one retrieved excerpt with its provenance. Fragments
// are immutable once retrieved.
type EvidenceFragment struct {
	PaperId string `json:"paper_id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Section string `json:"section"`
	Excerpt string `json:"excerpt"`
}

// RefItem binds a stable ref id (R1, R2, ...) to the fragment it names.
type RefItem struct {
	RefId   string `json:"ref_id"`
	PaperId string `json:"paper_id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Excerpt string `json:"excerpt"`
}

// SectionNotes records what the researcher gathered for one plan section.
type SectionNotes struct {
	Section string   `json:"section"`
	RefIds  []string `json:"ref_ids"`
	Note    string   `json:"note,omitempty"`
}

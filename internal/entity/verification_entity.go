package entity

type Verdict string

const (
	VerdictVerified  Verdict = "verified"
	VerdictUncertain Verdict = "uncertain"
	VerdictConflict  Verdict = "conflict"
)

type ClaimFinding struct {
	Claim   string   `json:"claim"`
	RefIds  []string `json:"ref_ids"`
	Verdict Verdict  `json:"verdict"`
	Note    string   `json:"note,omitempty"`
}

type VerificationStats struct {
	ClaimsChecked int `json:"claims_checked"`
	ClaimsTotal   int `json:"claims_total"`
}

// VerificationResult is the verifier's immutable output. Score is an integer
// trust level in [0, 10].
type VerificationResult struct {
	Score    int               `json:"score"`
	Comment  string            `json:"comment"`
	Findings []ClaimFinding    `json:"findings"`
	Stats    VerificationStats `json:"stats"`
}

package verifier

import (
	"reflect"
	"testing"
)

func TestExtractClaims(t *testing.T) {
	tests := []struct {
		name       string
		narrative  string
		wantClaims int
		wantFirst  string
		wantRefIds []string
	}{
		{
			name:       "single cited sentence",
			narrative:  "Direct preference optimization removes the reward model [R1].",
			wantClaims: 1,
			wantFirst:  "Direct preference optimization removes the reward model .",
			wantRefIds: []string{"R1"},
		},
		{
			name:       "multi citation marker",
			narrative:  "Several works report instability at scale [R2,R5].",
			wantClaims: 1,
			wantFirst:  "Several works report instability at scale .",
			wantRefIds: []string{"R2", "R5"},
		},
		{
			name:       "uncited substantive sentence is a claim",
			narrative:  "These approaches share a common optimization target.",
			wantClaims: 1,
			wantFirst:  "These approaches share a common optimization target.",
			wantRefIds: nil,
		},
		{
			name:       "headings are skipped",
			narrative:  "## Background\n\nAlignment work accelerated after 2022 [R3].",
			wantClaims: 1,
			wantFirst:  "Alignment work accelerated after 2022 .",
			wantRefIds: []string{"R3"},
		},
		{
			name:       "references appendix is excluded",
			narrative:  "The method converges quickly [R1].\n\n## References\n\nR1. Some Paper (ICLR 2023)",
			wantClaims: 1,
			wantFirst:  "The method converges quickly .",
			wantRefIds: []string{"R1"},
		},
		{
			name:       "short uncited fragments are dropped",
			narrative:  "e.g. see below. Reward hacking remains an open problem [R4].",
			wantClaims: 1,
			wantFirst:  "Reward hacking remains an open problem .",
			wantRefIds: []string{"R4"},
		},
		{
			name:       "cjk terminator splits",
			narrative:  "该方法提高了对齐质量 [R1]。后续工作扩展了这一思路 [R2]。",
			wantClaims: 2,
			wantFirst:  "该方法提高了对齐质量 。",
			wantRefIds: []string{"R1"},
		},
		{
			name:       "variant markers are normalized before extraction",
			narrative:  "The score improves monotonically （R7）.",
			wantClaims: 1,
			wantFirst:  "The score improves monotonically .",
			wantRefIds: []string{"R7"},
		},
		{
			name:       "empty narrative",
			narrative:  "",
			wantClaims: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := ExtractClaims(tt.narrative)

			if len(claims) != tt.wantClaims {
				t.Fatalf("claim count = %d, want %d (claims: %+v)", len(claims), tt.wantClaims, claims)
			}
			if tt.wantClaims == 0 {
				return
			}
			if claims[0].Text != tt.wantFirst {
				t.Errorf("first claim = %q, want %q", claims[0].Text, tt.wantFirst)
			}
			if !reflect.DeepEqual(claims[0].RefIds, tt.wantRefIds) {
				t.Errorf("first claim refs = %v, want %v", claims[0].RefIds, tt.wantRefIds)
			}
		})
	}
}

func TestSplitSentencesKeepsDecimals(t *testing.T) {
	units := splitSentences("The model scores 7.5 on average [R1]. A second run confirms it [R2].")
	if len(units) != 2 {
		t.Fatalf("unit count = %d, want 2 (%q)", len(units), units)
	}
	if want := "The model scores 7.5 on average [R1]."; units[0] != want {
		t.Errorf("units[0] = %q, want %q", units[0], want)
	}
}

package verifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"ai-research-be/pkg/citation"
)

// Claim is one sentence-granularity unit of the narrative subject to
// verification. Text has its citation markers stripped.
type Claim struct {
	Text   string
	RefIds []string
}

// minClaimRunes filters out fragments like "e.g." that sentence splitting
// produces. Units carrying a citation are always kept.
const minClaimRunes = 12

var referencesHeading = regexp.MustCompile(`(?im)^\s*#{1,6}\s*(references|参考文献)\s*$`)

// ExtractClaims segments the narrative into claims. The references appendix
// and markdown headings are skipped; everything else is split into sentence
// units on 。！？ and on .!? at word boundaries.
func ExtractClaims(narrative string) []Claim {
	normalized := citation.NormalizeMarkers(narrative)

	// The references appendix lists sources, not claims.
	if loc := referencesHeading.FindStringIndex(normalized); loc != nil {
		normalized = normalized[:loc[0]]
	}

	var claims []Claim
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, unit := range splitSentences(line) {
			refIds := citation.ExtractRefIds(unit)
			text := stripMarkers(unit)
			if text == "" {
				continue
			}
			if len(refIds) == 0 && utf8.RuneCountInString(text) < minClaimRunes {
				continue
			}
			claims = append(claims, Claim{Text: text, RefIds: refIds})
		}
	}
	return claims
}

// splitSentences cuts after CJK terminators unconditionally and after .!?
// only at a word boundary, so decimals and abbreviations survive.
func splitSentences(text string) []string {
	var units []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if sentenceEnds(r, runes, i) {
			units = append(units, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

func sentenceEnds(r rune, runes []rune, i int) bool {
	switch r {
	case '。', '！', '？':
		return true
	case '.', '!', '?':
		if i+1 >= len(runes) {
			return true
		}
		next := runes[i+1]
		return next == ' ' || next == '\t'
	}
	return false
}

func stripMarkers(unit string) string {
	text := citation.FilterMarkers(unit, func(string) bool { return false })
	return strings.Join(strings.Fields(text), " ")
}

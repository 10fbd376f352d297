package citation

import (
	"regexp"
	"strings"
)

// Marker syntax:
//   [R1] [R1,R2]     - canonical bracket form
//   (R1) （R1） 《R1》 {R1} - variant forms models tend to emit, normalized away
//   ⁽ᴿ¹˒ᴿ²⁾          - superscript display form
var (
	markerPattern  = regexp.MustCompile(`\[((?:R\d+\s*[,，、]\s*)*R\d+)\]`)
	variantPattern = regexp.MustCompile(`[（(《{]\s*((?:R\d+\s*[,，、]\s*)*R\d+)\s*[)）》}]`)
	refIdPattern   = regexp.MustCompile(`R\d+`)

	superscriptMarkerPattern = regexp.MustCompile(`⁽(?:ᴿ[⁰¹²³⁴⁵⁶⁷⁸⁹]+˒?)+⁾`)
)

var superscriptEncoder = strings.NewReplacer(
	"(", "⁽", ")", "⁾", "R", "ᴿ", ",", "˒",
	"0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴",
	"5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹",
)

var superscriptDecoder = strings.NewReplacer(
	"⁽", "(", "⁾", ")", "ᴿ", "R", "˒", ",",
	"⁰", "0", "¹", "1", "²", "2", "³", "3", "⁴", "4",
	"⁵", "5", "⁶", "6", "⁷", "7", "⁸", "8", "⁹", "9",
)

// Marker is one citation group as it appears in narrative text.
type Marker struct {
	Raw    string
	RefIds []string
}

// NormalizeMarkers rewrites variant bracket styles to the canonical form:
// (R1), （R1）, 《R1》 and {R1} all become [R1].
func NormalizeMarkers(text string) string {
	return variantPattern.ReplaceAllString(text, "[$1]")
}

// ExtractMarkers returns every canonical marker in the text, in order of
// appearance. Run NormalizeMarkers first to also catch variant forms.
func ExtractMarkers(text string) []Marker {
	matches := markerPattern.FindAllString(text, -1)
	out := make([]Marker, 0, len(matches))
	for _, m := range matches {
		out = append(out, Marker{
			Raw:    m,
			RefIds: refIdPattern.FindAllString(m, -1),
		})
	}
	return out
}

// ExtractRefIds returns the unique ref ids cited in the text, in first-use
// order.
func ExtractRefIds(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range ExtractMarkers(text) {
		for _, id := range m.RefIds {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// EncodeMarker renders ids in canonical bracket form:
// ["R1","R12"] -> "[R1,R12]".
func EncodeMarker(refIds []string) string {
	return "[" + strings.Join(refIds, ",") + "]"
}

// DecodeMarker parses a single marker in bracket, variant or superscript form
// back to its ordered id list. Returns nil when the input is not a marker.
func DecodeMarker(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if superscriptMarkerPattern.MatchString(s) {
		s = superscriptDecoder.Replace(s)
	}
	s = NormalizeMarkers(s)
	if !markerPattern.MatchString(s) {
		return nil
	}
	return refIdPattern.FindAllString(s, -1)
}

// RenderSuperscript converts every canonical marker to the superscript
// display form: [R1,R2] -> ⁽ᴿ¹˒ᴿ²⁾.
func RenderSuperscript(text string) string {
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		ids := refIdPattern.FindAllString(m, -1)
		return superscriptEncoder.Replace("(" + strings.Join(ids, ",") + ")")
	})
}

// FilterMarkers rewrites each canonical marker keeping only the ids keep
// accepts. Markers with nothing left are removed entirely.
func FilterMarkers(text string, keep func(refId string) bool) string {
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		ids := refIdPattern.FindAllString(m, -1)
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if keep(id) {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			return ""
		}
		return EncodeMarker(kept)
	})
}

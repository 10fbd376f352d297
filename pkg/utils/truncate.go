package utils

// TruncateRunes shortens s to at most max runes, appending an ellipsis when
// anything was cut. Used for derived titles and log previews.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

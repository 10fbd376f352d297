package retrieval

import (
	"strconv"
	"strings"

	"ai-research-be/internal/entity"
)

// ParseQuery extracts slash operators from a raw corpus query.
// Supported:
//
//	/year:2023 or /year:2020-2023 -> year filter
//	/venue:<term>                 -> venue substring
//	/author:<term>                -> author substring
//	/title:<term>                 -> title substring
//	/kw:<term>                    -> keyword substring
//	/rating:7                     -> minimum rating
//	/decision:<term>              -> decision substring
//
// The remaining text is the search query itself.
func ParseQuery(raw string) (string, entity.SearchFilters) {
	var filters entity.SearchFilters
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		switch {
		case strings.HasPrefix(lowerPart, "/year:"):
			val := strings.TrimPrefix(lowerPart, "/year:")
			if from, to, ok := parseYearRange(val); ok {
				filters.MinYear = from
				filters.MaxYear = to
			} else if year, err := strconv.Atoi(val); err == nil {
				filters.YearIn = append(filters.YearIn, year)
			}
		case strings.HasPrefix(lowerPart, "/venue:"):
			filters.VenueContains = strings.TrimPrefix(lowerPart, "/venue:")
		case strings.HasPrefix(lowerPart, "/author:"):
			filters.AuthorContains = strings.TrimPrefix(lowerPart, "/author:")
		case strings.HasPrefix(lowerPart, "/title:"):
			filters.TitleContains = strings.TrimPrefix(lowerPart, "/title:")
		case strings.HasPrefix(lowerPart, "/kw:"):
			filters.KeywordContains = strings.TrimPrefix(lowerPart, "/kw:")
		case strings.HasPrefix(lowerPart, "/rating:"):
			if rating, err := strconv.ParseFloat(strings.TrimPrefix(lowerPart, "/rating:"), 64); err == nil {
				filters.MinRating = rating
			}
		case strings.HasPrefix(lowerPart, "/decision:"):
			filters.DecisionIn = append(filters.DecisionIn, strings.TrimPrefix(lowerPart, "/decision:"))
		default:
			cleanParts = append(cleanParts, part)
		}
	}

	return strings.Join(cleanParts, " "), filters
}

func parseYearRange(val string) (int, int, bool) {
	from, to, found := strings.Cut(val, "-")
	if !found {
		return 0, 0, false
	}
	fromYear, err1 := strconv.Atoi(from)
	toYear, err2 := strconv.Atoi(to)
	if err1 != nil || err2 != nil || fromYear > toYear {
		return 0, 0, false
	}
	return fromYear, toYear, true
}

package search

import (
	"strconv"
	"strings"
)

// Filters holds the extracted filters and the remaining clean query.
type Filters struct {
	Page         int // -1 when unrestricted
	HeadingsOnly bool
	Query        string // the remaining text to match against block content
}

// ParseQuery extracts slash commands from the raw query string.
// Supported:
// /page:<n> -> restrict hits to one page (0-based)
// /h -> match heading blocks only
// <text> -> remaining text is the match query
func ParseQuery(raw string) Filters {
	filters := Filters{Page: -1}
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		if strings.HasPrefix(lowerPart, "/page:") {
			if n, err := strconv.Atoi(strings.TrimPrefix(lowerPart, "/page:")); err == nil && n >= 0 {
				filters.Page = n
			}
		} else if lowerPart == "/h" {
			filters.HeadingsOnly = true
		} else {
			cleanParts = append(cleanParts, part)
		}
	}

	filters.Query = strings.Join(cleanParts, " ")
	return filters
}

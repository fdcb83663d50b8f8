package caseengine

import (
	"sort"
	"strings"

	"github.com/civicwatch/case-api/models"
)

// SortKey selects the ordering of a case listing.
type SortKey string

const (
	// SortByFiledAt orders most recently filed first. This is the default.
	SortByFiledAt SortKey = "filedAt"
	// SortByCategory orders by category, ascending lexicographically.
	SortByCategory SortKey = "category"
)

// StatusFilterAll is the sentinel the console sends when no status filter is
// applied. An empty status behaves the same way.
const StatusFilterAll models.CaseStatus = "All"

// FilterByStatus keeps cases with exactly the given status. Empty or "All"
// returns the input unchanged.
func FilterByStatus(cases []models.Case, status models.CaseStatus) []models.Case {
	if status == "" || status == StatusFilterAll {
		return cases
	}
	out := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if c.Details.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// Search keeps cases matching the query as a case-insensitive substring of
// the description, location address, complainant name, category, reference
// number, any involved person's name, or the hex form of the id. An empty or
// whitespace-only query returns the input unchanged.
func Search(cases []models.Case, query string) []models.Case {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cases
	}
	out := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if caseMatches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func caseMatches(c models.Case, q string) bool {
	if strings.Contains(strings.ToLower(c.Details.Description), q) ||
		strings.Contains(strings.ToLower(c.Details.Location.Address), q) ||
		strings.Contains(strings.ToLower(c.Details.Complainant.Name), q) ||
		strings.Contains(strings.ToLower(c.Details.Category), q) ||
		strings.Contains(strings.ToLower(c.Details.ReferenceNumber), q) ||
		strings.Contains(c.ID.Hex(), q) {
		return true
	}
	for _, p := range c.Details.InvolvedPersons {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	return false
}

// SortCases returns a sorted copy of the listing. The sort is stable: ties
// keep their prior relative order, which is why the pipeline applies it last.
// An unrecognized key falls back to filedAt, matching the console default.
func SortCases(cases []models.Case, key SortKey) []models.Case {
	out := append([]models.Case(nil), cases...)
	switch key {
	case SortByCategory:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Details.Category < out[j].Details.Category
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Details.FiledAt > out[j].Details.FiledAt
		})
	}
	return out
}

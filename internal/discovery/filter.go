// Package discovery narrows the recommended universities down to the cards a
// user sees and computes the per-card match indicators.
package discovery

import (
	"strings"

	"studyabroad-workers/internal/models"
)

// RiskAll disables the risk tier predicate.
const RiskAll = "all"

// Query is the set of user-chosen discovery filters.
type Query struct {
	SearchText    string   `json:"searchText"`
	BudgetCeiling float64  `json:"budgetCeiling"`
	RiskTier      string   `json:"riskTier"`
	Regions       []string `json:"regions"`
}

// DefaultQuery is the filter state of a fresh discovery page.
func DefaultQuery() Query {
	return Query{
		BudgetCeiling: 60000,
		RiskTier:      RiskAll,
		Regions:       []string{"USA", "UK", "Canada", "Germany"},
	}
}

// Filter returns the universities matching every predicate of q, in input
// order. The input slice is not modified.
func Filter(universities []models.University, q Query) []models.University {
	regions := make(map[string]struct{}, len(q.Regions))
	for _, r := range q.Regions {
		regions[r] = struct{}{}
	}
	needle := strings.ToLower(strings.TrimSpace(q.SearchText))

	out := make([]models.University, 0, len(universities))
	for _, u := range universities {
		if len(regions) > 0 {
			if _, ok := regions[u.Country]; !ok {
				continue
			}
		}
		if u.TuitionFeeUSD > q.BudgetCeiling {
			continue
		}
		if !matchesRisk(u, q.RiskTier) {
			continue
		}
		if needle != "" && !matchesText(u, needle) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchesRisk(u models.University, tier string) bool {
	return tier == "" || strings.EqualFold(tier, RiskAll) || u.MatchTier.Equal(tier)
}

func matchesText(u models.University, needle string) bool {
	return strings.Contains(strings.ToLower(u.Name), needle) ||
		strings.Contains(strings.ToLower(u.Location), needle)
}

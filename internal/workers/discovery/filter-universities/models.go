package filteruniversities

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/discovery"
	"studyabroad-workers/internal/models"
)

// Input carries the discovery filters. Absent filters take the configured
// defaults; an explicit empty regions list matches every country.
type Input struct {
	UserID        string   `json:"userId"`
	AccessToken   string   `json:"accessToken,omitempty"`
	SearchText    string   `json:"searchText,omitempty"`
	BudgetCeiling *float64 `json:"budgetCeiling,omitempty"`
	RiskTier      string   `json:"riskTier,omitempty"`
	Regions       []string `json:"regions"`
	SortByRanking bool     `json:"sortByRanking,omitempty"`
}

type Output struct {
	Universities   []discovery.Card    `json:"universities"`
	TotalCount     int                 `json:"totalCount"`
	VisibleCount   int                 `json:"visibleCount"`
	ShortlistCount int                 `json:"shortlistCount"`
	AppliedQuery   discovery.Query     `json:"appliedQuery"`
	Profile        *models.UserProfile `json:"profile,omitempty"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId"},
		Properties: map[string]validation.Property{
			"userId":        {Type: "string", MinLength: validation.Int(1)},
			"accessToken":   {Type: "string"},
			"searchText":    {Type: "string", MaxLength: validation.Int(200)},
			"budgetCeiling": {Type: "number", Minimum: validation.Float(0)},
			"riskTier":      {Type: "string", Enum: []string{"all", "All", "safe", "Safe", "target", "Target", "dream", "Dream"}},
			"regions":       {Type: "array", Nullable: true, Items: &validation.Property{Type: "string"}},
			"sortByRanking": {Type: "boolean"},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"universities", "totalCount", "visibleCount"},
		Properties: map[string]validation.Property{
			"universities":   {Type: "array", Items: &validation.Property{Type: "object"}},
			"totalCount":     {Type: "integer", Minimum: validation.Float(0)},
			"visibleCount":   {Type: "integer", Minimum: validation.Float(0)},
			"shortlistCount": {Type: "integer", Minimum: validation.Float(0)},
			"appliedQuery":   {Type: "object"},
			"profile":        {Type: "object"},
		},
	}
}

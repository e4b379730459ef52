package computeprofilescore

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/scoring"
)

type Input struct {
	UserID         string   `json:"userId"`
	AccessToken    string   `json:"accessToken,omitempty"`
	RefreshProfile bool     `json:"refreshProfile,omitempty"`
	Radius         *float64 `json:"radius,omitempty"`
}

type Output struct {
	ProfileScore    int               `json:"profileScore"`
	ScoreTier       scoring.Tier      `json:"scoreTier"`
	ScoreMessage    string            `json:"scoreMessage"`
	ScoreColor      string            `json:"scoreColor"`
	ScoreBreakdown  scoring.Breakdown `json:"scoreBreakdown"`
	MissingSteps    []string          `json:"missingSteps"`
	ProgressCircle  scoring.Circle    `json:"progressCircle"`
	CurrentStage    int               `json:"currentStage"`
	IsAuthenticated bool              `json:"isAuthenticated"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId"},
		Properties: map[string]validation.Property{
			"userId":         {Type: "string", MinLength: validation.Int(1), Description: "Owner of the scored profile"},
			"accessToken":    {Type: "string", Description: "Bearer token to persist before scoring"},
			"refreshProfile": {Type: "boolean", Description: "Fetch the profile remotely instead of using the snapshot"},
			"radius":         {Type: "number", Minimum: validation.Float(1), Description: "Progress ring radius"},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"profileScore", "scoreTier", "currentStage"},
		Properties: map[string]validation.Property{
			"profileScore":    {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"scoreTier":       {Type: "string", Enum: []string{string(scoring.TierIncomplete), string(scoring.TierInProgress), string(scoring.TierComplete)}},
			"scoreMessage":    {Type: "string"},
			"scoreColor":      {Type: "string"},
			"scoreBreakdown":  {Type: "object"},
			"missingSteps":    {Type: "array", Items: &validation.Property{Type: "string"}},
			"progressCircle":  {Type: "object"},
			"currentStage":    {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(4)},
			"isAuthenticated": {Type: "boolean"},
		},
	}
}

package updateprofile

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/models"
)

type Input struct {
	UserID      string               `json:"userId"`
	AccessToken string               `json:"accessToken,omitempty"`
	Profile     models.ProfileUpdate `json:"profile"`
}

type Output struct {
	Profile       models.UserProfile `json:"profile"`
	UpdatedFields []string           `json:"updatedFields"`
	ProfileScore  int                `json:"profileScore"`
	CurrentStage  int                `json:"currentStage"`
}

// updatedFields names the patch fields that were supplied, values or nulls.
func updatedFields(p models.ProfileUpdate) []string {
	out := []string{}
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"degree_level", p.DegreeLevel.Set},
		{"gpa", p.GPA.Set},
		{"ielts_score", p.IELTSScore.Set},
		{"gre_score", p.GREScore.Set},
		{"budget", p.Budget.Set},
		{"target_country", p.TargetCountry.Set},
	} {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "profile"},
		Properties: map[string]validation.Property{
			"userId":      {Type: "string", MinLength: validation.Int(1)},
			"accessToken": {Type: "string"},
			"profile": {
				Type:        "object",
				Description: "Partial profile; absent fields are kept, null clears",
				Properties: map[string]validation.Property{
					"degree_level":   {Type: "string", Nullable: true, Enum: []string{"bachelors", "masters", "phd", "unset", "Bachelors", "Masters", "PhD"}},
					"gpa":            {Type: "number", Nullable: true, Minimum: validation.Float(0), Maximum: validation.Float(10)},
					"ielts_score":    {Type: "number", Nullable: true, Minimum: validation.Float(0), Maximum: validation.Float(9)},
					"gre_score":      {Type: "integer", Nullable: true, Minimum: validation.Float(260), Maximum: validation.Float(340)},
					"budget":         {Type: "integer", Nullable: true, Minimum: validation.Float(0)},
					"target_country": {Type: "string", Nullable: true, MaxLength: validation.Int(64)},
				},
			},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"profile", "updatedFields"},
		Properties: map[string]validation.Property{
			"profile":       {Type: "object"},
			"updatedFields": {Type: "array", Items: &validation.Property{Type: "string"}},
			"profileScore":  {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"currentStage":  {Type: "integer"},
		},
	}
}

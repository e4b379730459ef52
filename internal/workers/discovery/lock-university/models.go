package lockuniversity

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/models"
)

// Input selects the university to commit to. When only universityId is
// given the entry is taken from the user's shortlist.
type Input struct {
	UserID       string             `json:"userId"`
	AccessToken  string             `json:"accessToken,omitempty"`
	University   *models.University `json:"university,omitempty"`
	UniversityID models.ID          `json:"universityId,omitempty"`
	EntryPoint   string             `json:"entryPoint,omitempty"`
}

type Output struct {
	LockedUniversity models.LockedUniversity `json:"lockedUniversity"`
	Tasks            models.TaskList         `json:"tasks"`
	TaskProgress     int                     `json:"taskProgress"`
	ShortlistCleared bool                    `json:"shortlistCleared"`
	Message          string                  `json:"message"`
	TasksCreated     int                     `json:"tasksCreated"`
	CurrentStage     int                     `json:"currentStage"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId"},
		Properties: map[string]validation.Property{
			"userId":      {Type: "string", MinLength: validation.Int(1)},
			"accessToken": {Type: "string"},
			"university": {
				Type:     "object",
				Required: []string{"id", "name"},
				Properties: map[string]validation.Property{
					"id":              {Description: "string or number"},
					"name":            {Type: "string", MinLength: validation.Int(1)},
					"tuition_fee":     {Type: "number", Minimum: validation.Float(0)},
					"acceptance_rate": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
				},
			},
			"universityId": {Description: "string or number"},
			"entryPoint":   {Type: "string", Enum: []string{models.EntryDiscovery, models.EntryReview}},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"lockedUniversity", "tasks"},
		Properties: map[string]validation.Property{
			"lockedUniversity": {Type: "object"},
			"tasks":            {Type: "array", Items: &validation.Property{Type: "object"}},
			"taskProgress":     {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"shortlistCleared": {Type: "boolean"},
			"message":          {Type: "string"},
			"tasksCreated":     {Type: "integer"},
			"currentStage":     {Type: "integer"},
		},
	}
}

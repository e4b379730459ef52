package updateapplicationtask

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/models"
)

const (
	ActionLoad   = "load"
	ActionToggle = "toggle"
	ActionUpdate = "update"
)

// Input addresses one task list. universityId defaults to the locked
// university.
type Input struct {
	UserID       string           `json:"userId"`
	AccessToken  string           `json:"accessToken,omitempty"`
	Action       string           `json:"action"`
	UniversityID models.ID        `json:"universityId,omitempty"`
	TaskID       string           `json:"taskId,omitempty"`
	Patch        models.TaskPatch `json:"patch,omitzero"`
}

type Output struct {
	UniversityID string                  `json:"universityId"`
	Tasks        models.TaskList         `json:"tasks"`
	Task         *models.ApplicationTask `json:"task,omitempty"`
	Progress     int                     `json:"progress"`
	Completed    int                     `json:"completed"`
	Total        int                     `json:"total"`
	IsComplete   bool                    `json:"isComplete"`
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "action"},
		Properties: map[string]validation.Property{
			"userId":       {Type: "string", MinLength: validation.Int(1)},
			"accessToken":  {Type: "string"},
			"action":       {Type: "string", MinLength: validation.Int(1)},
			"universityId": {Description: "string or number"},
			"taskId":       {Type: "string", MinLength: validation.Int(1)},
			"patch": {
				Type: "object",
				Properties: map[string]validation.Property{
					"title":       {Type: "string", MinLength: validation.Int(1)},
					"description": {Type: "string"},
					"status":      {Type: "string", Enum: []string{string(models.TaskPending), string(models.TaskDone)}},
					"actionType": {Type: "string", Enum: []string{
						string(models.ActionUpload), string(models.ActionGenerate), string(models.ActionPay), string(models.ActionVerify),
					}},
					"actionLabel": {Type: "string"},
				},
			},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"universityId", "tasks", "progress"},
		Properties: map[string]validation.Property{
			"universityId": {Type: "string"},
			"tasks":        {Type: "array", Items: &validation.Property{Type: "object"}},
			"task":         {Type: "object"},
			"progress":     {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"completed":    {Type: "integer", Minimum: validation.Float(0)},
			"total":        {Type: "integer", Minimum: validation.Float(0)},
			"isComplete":   {Type: "boolean"},
		},
	}
}

package updateshortlist

import (
	"studyabroad-workers/internal/common/validation"
	"studyabroad-workers/internal/models"
)

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionClear  = "clear"
	ActionList   = "list"
)

// Input names a shortlist action. add needs the full university; remove
// takes either the university or its id.
type Input struct {
	UserID       string             `json:"userId"`
	AccessToken  string             `json:"accessToken,omitempty"`
	Action       string             `json:"action"`
	University   *models.University `json:"university,omitempty"`
	UniversityID models.ID          `json:"universityId,omitempty"`
}

type Output struct {
	Action        string              `json:"action"`
	Shortlist     []models.University `json:"shortlist"`
	Count         int                 `json:"count"`
	Changed       bool                `json:"changed"`
	IsShortlisted bool                `json:"isShortlisted"`
}

func universitySchema() validation.Property {
	return validation.Property{
		Type:     "object",
		Required: []string{"id", "name"},
		Properties: map[string]validation.Property{
			"id":              {Description: "string or number"},
			"name":            {Type: "string", MinLength: validation.Int(1)},
			"country":         {Type: "string"},
			"location":        {Type: "string"},
			"tuition_fee":     {Type: "number", Minimum: validation.Float(0)},
			"acceptance_rate": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
			"ranking":         {Type: "integer", Nullable: true},
			"match_tier":      {Type: "string"},
		},
	}
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "action"},
		Properties: map[string]validation.Property{
			"userId":       {Type: "string", MinLength: validation.Int(1)},
			"accessToken":  {Type: "string"},
			"action":       {Type: "string", MinLength: validation.Int(1)},
			"university":   universitySchema(),
			"universityId": {Description: "string or number"},
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"action", "shortlist", "count"},
		Properties: map[string]validation.Property{
			"action":        {Type: "string", Enum: []string{ActionAdd, ActionRemove, ActionClear, ActionList}},
			"shortlist":     {Type: "array", Items: &validation.Property{Type: "object"}},
			"count":         {Type: "integer", Minimum: validation.Float(0)},
			"changed":       {Type: "boolean"},
			"isShortlisted": {Type: "boolean"},
		},
	}
}

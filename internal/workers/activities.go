// Package workers describes the job types this module serves.
package workers

import (
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/validation"
	updateapplicationtask "studyabroad-workers/internal/workers/applications/update-application-task"
	filteruniversities "studyabroad-workers/internal/workers/discovery/filter-universities"
	lockuniversity "studyabroad-workers/internal/workers/discovery/lock-university"
	updateshortlist "studyabroad-workers/internal/workers/discovery/update-shortlist"
	computeprofilescore "studyabroad-workers/internal/workers/readiness/compute-profile-score"
	updateprofile "studyabroad-workers/internal/workers/readiness/update-profile"

	"studyabroad-workers/pkg/registry"
)

// Definition is the static description of one job type.
type Definition struct {
	TaskType     string
	DisplayName  string
	Description  string
	Category     string
	Timeout      string
	InputSchema  validation.JSONSchema
	OutputSchema validation.JSONSchema
	ErrorCodes   []errors.ErrorCode
}

var common = []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeStoreUnavailable, errors.ErrCodeInternal}

func codes(extra ...errors.ErrorCode) []errors.ErrorCode {
	return append(append([]errors.ErrorCode(nil), common...), extra...)
}

// Definitions lists every job type in registration order.
func Definitions() []Definition {
	return []Definition{
		{
			TaskType:     computeprofilescore.TaskType,
			DisplayName:  "Compute Profile Score",
			Description:  "Scores profile readiness out of 100 and derives the journey stage",
			Category:     "readiness",
			Timeout:      "10s",
			InputSchema:  computeprofilescore.GetInputSchema(),
			OutputSchema: computeprofilescore.GetOutputSchema(),
			ErrorCodes:   codes(),
		},
		{
			TaskType:     updateprofile.TaskType,
			DisplayName:  "Update Profile",
			Description:  "Normalizes and validates a partial profile update and applies it remotely",
			Category:     "readiness",
			Timeout:      "15s",
			InputSchema:  updateprofile.GetInputSchema(),
			OutputSchema: updateprofile.GetOutputSchema(),
			ErrorCodes:   codes(errors.ErrCodeUnauthorized, errors.ErrCodeNetworkUnreachable, errors.ErrCodeServerRejected),
		},
		{
			TaskType:     filteruniversities.TaskType,
			DisplayName:  "Filter Universities",
			Description:  "Loads recommendations and returns the cards matching the discovery filters",
			Category:     "discovery",
			Timeout:      "20s",
			InputSchema:  filteruniversities.GetInputSchema(),
			OutputSchema: filteruniversities.GetOutputSchema(),
			ErrorCodes:   codes(errors.ErrCodeUnauthorized, errors.ErrCodeNetworkUnreachable, errors.ErrCodeServerRejected, errors.ErrCodeCatalogUnavailable),
		},
		{
			TaskType:     updateshortlist.TaskType,
			DisplayName:  "Update Shortlist",
			Description:  "Adds, removes, clears or lists shortlisted universities",
			Category:     "discovery",
			Timeout:      "10s",
			InputSchema:  updateshortlist.GetInputSchema(),
			OutputSchema: updateshortlist.GetOutputSchema(),
			ErrorCodes:   codes(errors.ErrCodeInvalidAction),
		},
		{
			TaskType:     lockuniversity.TaskType,
			DisplayName:  "Lock University",
			Description:  "Commits to one university remotely and seeds its application tasks",
			Category:     "discovery",
			Timeout:      "30s",
			InputSchema:  lockuniversity.GetInputSchema(),
			OutputSchema: lockuniversity.GetOutputSchema(),
			ErrorCodes:   codes(errors.ErrCodeUnauthorized, errors.ErrCodeLockFailed, errors.ErrCodeUniversityNotFound),
		},
		{
			TaskType:     updateapplicationtask.TaskType,
			DisplayName:  "Update Application Task",
			Description:  "Loads, toggles or edits the application checklist of a university",
			Category:     "applications",
			Timeout:      "10s",
			InputSchema:  updateapplicationtask.GetInputSchema(),
			OutputSchema: updateapplicationtask.GetOutputSchema(),
			ErrorCodes:   codes(errors.ErrCodeInvalidAction, errors.ErrCodeTaskNotFound),
		},
	}
}

// Activity renders d as a registry entry.
func (d Definition) Activity(version string) registry.Activity {
	errorCodes := make([]string, 0, len(d.ErrorCodes))
	for _, c := range d.ErrorCodes {
		errorCodes = append(errorCodes, string(c))
	}
	return registry.Activity{
		ID:                   d.TaskType,
		DisplayName:          d.DisplayName,
		Description:          d.Description,
		Category:             d.Category,
		Version:              version,
		TaskType:             d.TaskType,
		ImplementationStatus: registry.StatusCompleted,
		InputSchema:          d.InputSchema.ToMap(),
		OutputSchema:         d.OutputSchema.ToMap(),
		ErrorCodes:           errorCodes,
		Timeout:              d.Timeout,
		Workflows:            []string{},
		Tags:                 []string{d.Category},
	}
}

// Package tasks tracks the application checklist of a locked university.
package tasks

import (
	"context"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/store"
)

// Defaults returns a fresh copy of the six-task checklist, all pending.
func Defaults() models.TaskList {
	return models.TaskList{
		{ID: "sop", Title: "Draft Statement of Purpose", Description: "Write a compelling SOP highlighting your achievements", Status: models.TaskPending, ActionType: models.ActionGenerate, ActionLabel: "Generate"},
		{ID: "transcript", Title: "Upload Official Transcript", Description: "Scan and upload your academic transcripts", Status: models.TaskPending, ActionType: models.ActionUpload, ActionLabel: "Upload"},
		{ID: "lor", Title: "Secure 2 Letters of Recommendation", Description: "Request LORs from professors or supervisors", Status: models.TaskPending, ActionType: models.ActionVerify, ActionLabel: "Verify"},
		{ID: "resume", Title: "Update Resume/CV", Description: "Tailor your resume for this application", Status: models.TaskPending, ActionType: models.ActionUpload, ActionLabel: "Upload"},
		{ID: "fee", Title: "Pay Application Fee", Description: "Complete the application fee payment", Status: models.TaskPending, ActionType: models.ActionPay, ActionLabel: "Pay Now"},
		{ID: "essays", Title: "Complete Supplemental Essays", Description: "Answer all supplemental essay questions", Status: models.TaskPending, ActionType: models.ActionGenerate, ActionLabel: "Write"},
	}
}

// Tracker reads and writes task lists through a user-scoped store. Every
// mutation is written through before it returns.
type Tracker struct {
	store  store.RecordStore
	logger logger.Logger
}

func NewTracker(s store.RecordStore, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracker{store: s, logger: log}
}

// Load returns the persisted list, or the defaults when none is stored.
func (t *Tracker) Load(ctx context.Context, universityID string) (models.TaskList, error) {
	var list models.TaskList
	found, err := t.store.Get(ctx, store.TasksKey(universityID), &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return Defaults(), nil
	}
	return list, nil
}

// Seed replaces the list of universityID with the defaults.
func (t *Tracker) Seed(ctx context.Context, universityID string) (models.TaskList, error) {
	list := Defaults()
	if err := t.store.Put(ctx, store.TasksKey(universityID), list); err != nil {
		return nil, err
	}
	t.logger.Info("application tasks seeded", map[string]interface{}{
		"universityId": universityID,
		"count":        len(list),
	})
	return list, nil
}

// Discard removes the stored list of universityID.
func (t *Tracker) Discard(ctx context.Context, universityID string) error {
	return t.store.Delete(ctx, store.TasksKey(universityID))
}

// Toggle flips the status of one task.
func (t *Tracker) Toggle(ctx context.Context, universityID, taskID string) (models.TaskList, error) {
	list, err := t.mutate(ctx, universityID, taskID, func(task models.ApplicationTask) models.ApplicationTask {
		task.Status = task.Status.Flip()
		return task
	})
	if err != nil {
		return nil, err
	}
	metrics.ApplicationTasksToggled.WithLabelValues(string(list[list.Index(taskID)].Status)).Inc()
	return list, nil
}

// Update merges the present fields of patch into one task.
func (t *Tracker) Update(ctx context.Context, universityID, taskID string, patch models.TaskPatch) (models.TaskList, error) {
	return t.mutate(ctx, universityID, taskID, patch.Apply)
}

func (t *Tracker) mutate(ctx context.Context, universityID, taskID string, fn func(models.ApplicationTask) models.ApplicationTask) (models.TaskList, error) {
	list, err := t.Load(ctx, universityID)
	if err != nil {
		return nil, err
	}
	i := list.Index(taskID)
	if i < 0 {
		return nil, errors.NewTaskNotFoundError(universityID, taskID)
	}

	next := list.Clone()
	next[i] = fn(next[i])
	if err := t.store.Put(ctx, store.TasksKey(universityID), next); err != nil {
		return nil, err
	}
	t.logger.Debug("application task updated", map[string]interface{}{
		"universityId": universityID,
		"taskId":       taskID,
		"status":       next[i].Status,
		"progress":     next.Progress(),
	})
	return next, nil
}

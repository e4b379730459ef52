package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdate_TriState(t *testing.T) {
	var u ProfileUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"gpa":3.5,"ielts_score":null}`), &u))

	assert.True(t, u.GPA.Present())
	assert.Equal(t, 3.5, u.GPA.Value)
	assert.True(t, u.IELTSScore.Set)
	assert.True(t, u.IELTSScore.Null)
	assert.False(t, u.GREScore.Set)
	assert.False(t, u.IsEmpty())

	ielts := 7.0
	gre := 320
	base := &UserProfile{IELTSScore: &ielts, GREScore: &gre, TargetCountry: "UK"}
	merged := u.ApplyTo(base)

	assert.Nil(t, merged.IELTSScore)
	require.NotNil(t, merged.GREScore)
	assert.Equal(t, 320, *merged.GREScore)
	assert.Equal(t, 3.5, *merged.GPA)
	assert.Equal(t, "UK", merged.TargetCountry)
	assert.NotNil(t, base.IELTSScore, "base profile must not be mutated")
}

func TestProfileUpdate_MarshalOmitsAbsent(t *testing.T) {
	u := ProfileUpdate{Budget: Some[int64](30000), TargetCountry: Null[string]()}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"budget":30000,"target_country":null}`, string(raw))
}

func TestID_DecodesNumbersAndStrings(t *testing.T) {
	var unis []University
	require.NoError(t, json.Unmarshal([]byte(`[{"id":12,"name":"MIT"},{"id":"tum","name":"TUM"}]`), &unis))
	assert.Equal(t, ID("12"), unis[0].ID)
	assert.Equal(t, ID("tum"), unis[1].ID)
}

func TestTaskList_Progress(t *testing.T) {
	tests := []struct {
		name     string
		statuses []TaskStatus
		want     int
		complete bool
	}{
		{name: "empty", want: 0},
		{name: "none done", statuses: []TaskStatus{TaskPending, TaskPending}, want: 0},
		{name: "one of six", statuses: []TaskStatus{TaskDone, TaskPending, TaskPending, TaskPending, TaskPending, TaskPending}, want: 17},
		{name: "two of three", statuses: []TaskStatus{TaskDone, TaskDone, TaskPending}, want: 67},
		{name: "all", statuses: []TaskStatus{TaskDone, TaskDone}, want: 100, complete: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l TaskList
			for i, s := range tt.statuses {
				l = append(l, ApplicationTask{ID: string(rune('a' + i)), Status: s})
			}
			assert.Equal(t, tt.want, l.Progress())
			assert.Equal(t, tt.complete, l.IsComplete())
		})
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	task := ApplicationTask{ID: "sop", Title: "Draft", Status: TaskPending, ActionLabel: "Generate"}
	got := TaskPatch{Status: Some(TaskDone), ActionLabel: Some("View")}.Apply(task)

	assert.Equal(t, "sop", got.ID)
	assert.Equal(t, "Draft", got.Title)
	assert.Equal(t, TaskDone, got.Status)
	assert.Equal(t, "View", got.ActionLabel)
}

func TestTaskStatus_Flip(t *testing.T) {
	assert.Equal(t, TaskDone, TaskPending.Flip())
	assert.Equal(t, TaskPending, TaskDone.Flip())
	assert.Equal(t, TaskPending, TaskPending.Flip().Flip())
}

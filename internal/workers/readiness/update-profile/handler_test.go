package updateprofile

import (
	"context"
	"encoding/json"
	"testing"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/engine/enginetest"
	"studyabroad-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "onboarding-process",
		ElementId:          "Activity_UpdateProfile",
		CustomHeaders:      "{}",
		Variables:          string(variablesJSON),
	}}
}

func startingProfile() models.UserProfile {
	gre := 310
	return models.UserProfile{UserID: 7, DegreeLevel: models.DegreeBachelors, GREScore: &gre, TargetCountry: "USA"}
}

func newHandler(t *testing.T, be *enginetest.Backend) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Engine: be.Engine(t, nil), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestHandler_ParseInput(t *testing.T) {
	h := newHandler(t, enginetest.NewBackend(t, startingProfile(), nil))

	in, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"userId":  "7",
		"profile": map[string]interface{}{"gpa": 8.5, "gre_score": nil, "degree_level": "Masters"},
	}))
	require.NoError(t, err)
	assert.Equal(t, models.Some(8.5), in.Profile.GPA)
	assert.Equal(t, models.Null[int](), in.Profile.GREScore)
	assert.False(t, in.Profile.Budget.Set, "absent fields stay absent")
	assert.Equal(t, []string{"degree_level", "gpa", "gre_score"}, updatedFields(in.Profile))

	tests := []struct {
		name      string
		vars      map[string]interface{}
		wantField string
	}{
		{"missing profile", map[string]interface{}{"userId": "7"}, "profile"},
		{"gpa above ten", map[string]interface{}{"userId": "7", "profile": map[string]interface{}{"gpa": 11}}, "profile.gpa"},
		{"fractional gre", map[string]interface{}{"userId": "7", "profile": map[string]interface{}{"gre_score": 300.5}}, "profile.gre_score"},
		{"negative budget", map[string]interface{}{"userId": "7", "profile": map[string]interface{}{"budget": -5}}, "profile.budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(2, tt.vars))
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.wantField, stdErr.Metadata["field"])
		})
	}
}

func TestHandler_ExecuteNormalizesAndCaches(t *testing.T) {
	ctx := context.Background()
	be := enginetest.NewBackend(t, startingProfile(), nil)
	h := newHandler(t, be)

	out, err := h.Execute(ctx, &Input{
		UserID:      "7",
		AccessToken: "tok",
		Profile: models.ProfileUpdate{
			GPA:      models.Some(8.5),
			GREScore: models.Null[int](),
			Budget:   models.Some[int64](30000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"gpa", "gre_score", "budget"}, out.UpdatedFields)
	require.NotNil(t, out.Profile.GPA)
	assert.InDelta(t, 3.4, *out.Profile.GPA, 1e-9)
	assert.Nil(t, out.Profile.GREScore, "null clears the score")
	assert.Equal(t, 60, out.ProfileScore, "auth, academic target and budget")
	assert.Equal(t, models.StageDiscovery, out.CurrentStage)

	remote := be.Profile()
	assert.InDelta(t, 3.4, *remote.GPA, 1e-9)

	u, err := be.Engine(t, nil).ForUser(ctx, "7", "")
	require.NoError(t, err)
	cached, err := u.Profiles.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, out.Profile, *cached)
}

func TestHandler_ExecuteRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		patch    models.ProfileUpdate
		reject   bool
		wantCode errors.ErrorCode
	}{
		{name: "gre out of range", patch: models.ProfileUpdate{GREScore: models.Some(200)}, wantCode: errors.ErrCodeValidationFailed},
		{name: "gpa over ten", patch: models.ProfileUpdate{GPA: models.Some(12.0)}, wantCode: errors.ErrCodeValidationFailed},
		{name: "empty patch", patch: models.ProfileUpdate{}, wantCode: errors.ErrCodeValidationFailed},
		{name: "session rejected", patch: models.ProfileUpdate{TargetCountry: models.Some("UK")}, reject: true, wantCode: errors.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := enginetest.NewBackend(t, startingProfile(), nil)
			if tt.reject {
				be.RejectAuth()
			}
			_, err := newHandler(t, be).Execute(ctx, &Input{UserID: "7", AccessToken: "tok", Profile: tt.patch})
			assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, startingProfile(), be.Profile(), "remote profile untouched")
		})
	}
}

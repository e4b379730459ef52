package profile

import (
	"context"
	"testing"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockAPI) UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.UserProfile, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func TestNormalizeGPA(t *testing.T) {
	assert.Equal(t, 3.5, NormalizeGPA(3.5))
	assert.Equal(t, 4.0, NormalizeGPA(4))
	assert.InDelta(t, 3.4, NormalizeGPA(8.5), 1e-9)
	assert.InDelta(t, 4.0, NormalizeGPA(10), 1e-9)
}

func TestService_Validate(t *testing.T) {
	svc := NewService(&MockAPI{}, store.NewMemoryStore(nil), nil)

	tests := []struct {
		name      string
		patch     models.ProfileUpdate
		wantField string
	}{
		{name: "valid full patch", patch: models.ProfileUpdate{
			DegreeLevel: models.Some(models.DegreeMasters), GPA: models.Some(3.2), IELTSScore: models.Some(7.5),
			GREScore: models.Some(320), Budget: models.Some[int64](40000), TargetCountry: models.Some("UK"),
		}},
		{name: "nulls are allowed", patch: models.ProfileUpdate{IELTSScore: models.Null[float64](), GREScore: models.Null[int]()}},
		{name: "negative gpa", patch: models.ProfileUpdate{GPA: models.Some(-0.1)}, wantField: "gpa"},
		{name: "gpa above 10 scale", patch: models.ProfileUpdate{GPA: models.Some(4.4)}, wantField: "gpa"},
		{name: "ielts above 9", patch: models.ProfileUpdate{IELTSScore: models.Some(9.5)}, wantField: "ielts_score"},
		{name: "gre below 260", patch: models.ProfileUpdate{GREScore: models.Some(200)}, wantField: "gre_score"},
		{name: "gre above 340", patch: models.ProfileUpdate{GREScore: models.Some(341)}, wantField: "gre_score"},
		{name: "negative budget", patch: models.ProfileUpdate{Budget: models.Some[int64](-1)}, wantField: "budget"},
		{name: "unknown degree", patch: models.ProfileUpdate{DegreeLevel: models.Some(models.DegreeLevel("diploma"))}, wantField: "degree_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.patch)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.wantField, stdErr.Metadata["field"])
		})
	}
}

func TestService_UpdateNormalizesAndCaches(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(nil)
	api := &MockAPI{}
	svc := NewService(api, mem, logger.NewTestLogger(t))

	gpa := 3.4
	remote := &models.UserProfile{UserID: 3, GPA: &gpa, DegreeLevel: models.DegreeMasters, CurrentStage: 1}
	api.On("UpdateProfile", ctx, mock.MatchedBy(func(p models.ProfileUpdate) bool {
		return p.GPA.Value > 3.39 && p.GPA.Value < 3.41 && p.DegreeLevel.Value == models.DegreeMasters
	})).Return(remote, nil).Once()

	got, err := svc.Update(ctx, models.ProfileUpdate{GPA: models.Some(8.5), DegreeLevel: models.Some(models.DegreeLevel(" Masters "))})
	require.NoError(t, err)
	assert.Equal(t, remote, got)

	cached, err := svc.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote, cached)
	api.AssertExpectations(t)
}

func TestService_UpdateRejectedKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(nil)
	old := &models.UserProfile{UserID: 3, TargetCountry: "USA"}
	require.NoError(t, mem.Put(ctx, store.KeyUserProfile, old))

	api := &MockAPI{}
	api.On("UpdateProfile", ctx, mock.Anything).
		Return(nil, errors.NewServerRejectedError("/profile/update", 422, "Validation failed")).Once()
	svc := NewService(api, mem, nil)

	_, err := svc.Update(ctx, models.ProfileUpdate{TargetCountry: models.Some("UK")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeServerRejected))

	cached, err := svc.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USA", cached.TargetCountry)
}

func TestService_InvalidPatchNeverReachesRemote(t *testing.T) {
	api := &MockAPI{}
	svc := NewService(api, store.NewMemoryStore(nil), nil)

	_, err := svc.Update(context.Background(), models.ProfileUpdate{GREScore: models.Some(100)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	_, err = svc.Update(context.Background(), models.ProfileUpdate{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	api.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestService_GetRefreshesSnapshot(t *testing.T) {
	ctx := context.Background()
	api := &MockAPI{}
	p := &models.UserProfile{UserID: 5, FullName: "Sam Rivera"}
	api.On("GetProfile", ctx).Return(p, nil).Once()
	svc := NewService(api, store.NewMemoryStore(nil), nil)

	cached, err := svc.Cached(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	cached, err = svc.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, cached)
}

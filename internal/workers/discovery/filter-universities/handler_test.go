package filteruniversities

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/discovery"
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
		BpmnProcessId:      "discovery-process",
		ElementId:          "Activity_FilterUniversities",
		CustomHeaders:      "{}",
		Variables:          string(variablesJSON),
	}}
}

func rank(n int) *int { return &n }

func catalog() []models.University {
	return []models.University{
		{ID: "1", Name: "University of Toronto", Country: "Canada", Location: "Toronto", TuitionFeeUSD: 30000, AcceptanceRate: 43, Ranking: rank(21)},
		{ID: "2", Name: "Technical University of Munich", Country: "Germany", Location: "Munich", TuitionFeeUSD: 1500, AcceptanceRate: 8, Ranking: rank(37)},
		{ID: "3", Name: "University of Oxford", Country: "UK", Location: "Oxford", TuitionFeeUSD: 48000, AcceptanceRate: 17.5, Ranking: rank(3)},
		{ID: "4", Name: "Massachusetts Institute of Technology", Country: "USA", Location: "Cambridge", TuitionFeeUSD: 75000, AcceptanceRate: 4, Ranking: rank(1)},
		{ID: "5", Name: "University of Melbourne", Country: "Australia", Location: "Melbourne", TuitionFeeUSD: 35000, AcceptanceRate: 70, Ranking: rank(33)},
	}
}

func newHandler(t *testing.T, be *enginetest.Backend) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Engine: be.Engine(t, nil), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func ids(cards []discovery.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID.String())
	}
	return out
}

func TestHandler_ParseInput(t *testing.T) {
	h := newHandler(t, enginetest.NewBackend(t, models.UserProfile{}, nil))

	in, err := h.parseInput(createMockJob(1, map[string]interface{}{"userId": "7"}))
	require.NoError(t, err)
	assert.Nil(t, in.Regions, "absent regions take the default")
	assert.Nil(t, in.BudgetCeiling)

	in, err = h.parseInput(createMockJob(2, map[string]interface{}{"userId": "7", "regions": []string{}, "budgetCeiling": 0}))
	require.NoError(t, err)
	assert.NotNil(t, in.Regions)
	assert.Empty(t, in.Regions)
	require.NotNil(t, in.BudgetCeiling)
	assert.Zero(t, *in.BudgetCeiling)

	tests := []struct {
		name      string
		vars      map[string]interface{}
		wantField string
	}{
		{"missing user", map[string]interface{}{"riskTier": "safe"}, "userId"},
		{"unknown tier", map[string]interface{}{"userId": "7", "riskTier": "reach"}, "riskTier"},
		{"negative budget", map[string]interface{}{"userId": "7", "budgetCeiling": -1}, "budgetCeiling"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(3, tt.vars))
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Equal(t, tt.wantField, stdErr.Metadata["field"])
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	ctx := context.Background()
	budget := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		input Input
		want  []string
	}{
		{name: "default filters", input: Input{}, want: []string{"1", "2", "3"}},
		{name: "ranking order", input: Input{SortByRanking: true}, want: []string{"3", "1", "2"}},
		{name: "target tier", input: Input{RiskTier: "Target"}, want: []string{"1"}},
		{name: "text search", input: Input{SearchText: "  MUNICH "}, want: []string{"2"}},
		{name: "every region", input: Input{Regions: []string{}, BudgetCeiling: budget(100000)}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "zero budget", input: Input{BudgetCeiling: budget(0)}, want: []string{}},
		{name: "single region", input: Input{Regions: []string{"Australia"}}, want: []string{"5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, enginetest.NewBackend(t, models.UserProfile{}, catalog()))
			in := tt.input
			in.UserID = "7"
			in.AccessToken = "tok"
			out, err := h.Execute(ctx, &in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out.Universities))
			assert.Equal(t, 5, out.TotalCount)
			assert.Equal(t, len(tt.want), out.VisibleCount)
		})
	}
}

func TestHandler_ExecuteMarksShortlisted(t *testing.T) {
	ctx := context.Background()
	be := enginetest.NewBackend(t, models.UserProfile{}, catalog())
	u, err := be.Engine(t, nil).ForUser(ctx, "7", "tok")
	require.NoError(t, err)
	_, err = u.Shortlist.Add(ctx, catalog()[2])
	require.NoError(t, err)

	out, err := newHandler(t, be).Execute(ctx, &Input{UserID: "7"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ShortlistCount)
	require.Len(t, out.Universities, 3)
	for _, c := range out.Universities {
		assert.Equal(t, c.ID == "3", c.Shortlisted, c.Name)
	}
	oxford := out.Universities[2]
	assert.Equal(t, 97, oxford.RingScore)
	assert.Equal(t, discovery.BandStrong, oxford.RingBand)
	assert.Equal(t, 2, oxford.AcceptanceBucket)
	assert.Equal(t, models.TierDream, oxford.MatchTier)
}

func TestHandler_ExecuteSourceFailure(t *testing.T) {
	be := enginetest.NewBackend(t, models.UserProfile{}, catalog())
	be.RejectAuth()
	_, err := newHandler(t, be).Execute(context.Background(), &Input{UserID: "7", AccessToken: "stale"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized), "got %v", err)
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{
		Workers:   map[string]config.WorkerConfig{TaskType: {Enabled: true, MaxJobsActive: 4, Timeout: 5000}},
		Discovery: config.DiscoveryConfig{DefaultBudget: 40000, Regions: []string{"UK"}},
	}
	cfg := createConfigFromAppConfig(app, nil)
	assert.Equal(t, 4, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 40000.0, cfg.DefaultQuery.BudgetCeiling)
	assert.Equal(t, []string{"UK"}, cfg.DefaultQuery.Regions)
	assert.Equal(t, discovery.RiskAll, cfg.DefaultQuery.RiskTier)

	assert.Error(t, (&Config{MaxJobsActive: 1}).Validate())
	assert.NoError(t, DefaultConfig().Validate())
}

package filteruniversities

import (
	"context"
	stderrors "errors"
	"fmt"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/discovery"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "filter-universities"

var errNoSource = stderrors.New("no recommendation source configured")

type Handler struct {
	config *Config
	engine *engine.Engine
	logger logger.Logger
	runner *camunda.Runner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Engine       *engine.Engine
	CustomConfig *Config
	Logger       logger.Logger
	Recorder     camunda.JobRecorder
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config: workerConfig,
		engine: opts.Engine,
		logger: log,
		runner: &camunda.Runner{TaskType: TaskType, Timeout: workerConfig.Timeout, Logger: log, Recorder: opts.Recorder},
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		input, err := h.parseInput(job)
		if err != nil {
			return nil, err
		}
		return h.Execute(ctx, input)
	})
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := camunda.ParseVariables(job, GetInputSchema(), &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// query layers the job's filters over the configured defaults.
func (h *Handler) query(input *Input) discovery.Query {
	q := h.config.DefaultQuery
	q.Regions = append([]string(nil), q.Regions...)
	if input.SearchText != "" {
		q.SearchText = input.SearchText
	}
	if input.BudgetCeiling != nil {
		q.BudgetCeiling = *input.BudgetCeiling
	}
	if input.RiskTier != "" {
		q.RiskTier = input.RiskTier
	}
	if input.Regions != nil {
		q.Regions = input.Regions
	}
	return q
}

// Execute loads the user's recommendations and returns the cards that pass
// every filter, each marked with its shortlist membership.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}
	if u.Discovery == nil {
		return nil, errors.NewInternalError(errNoSource)
	}

	list, err := u.Shortlist.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[models.ID]struct{}, len(list))
	for _, s := range list {
		ids[s.ID] = struct{}{}
	}
	shortlisted := func(id models.ID) bool {
		_, ok := ids[id]
		return ok
	}

	q := h.query(input)
	board, err := u.Discovery.Load(ctx, q, shortlisted)
	if err != nil {
		return nil, err
	}

	cards := board.Cards
	if input.SortByRanking {
		visible := append([]models.University(nil), board.Universities...)
		discovery.SortByRanking(visible)
		cards = discovery.Annotate(visible, shortlisted)
	}

	h.logger.Info("universities filtered", map[string]interface{}{
		"userId":  u.ID,
		"total":   board.Total,
		"visible": len(cards),
	})

	return &Output{
		Universities:   cards,
		TotalCount:     board.Total,
		VisibleCount:   len(cards),
		ShortlistCount: len(list),
		AppliedQuery:   q,
		Profile:        board.Profile,
	}, nil
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

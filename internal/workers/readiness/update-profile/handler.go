package updateprofile

import (
	"context"
	"fmt"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "update-profile"

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

// Execute applies the partial update remotely and reports the new score.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}

	updated, err := u.Profiles.Update(ctx, input.Profile)
	if err != nil {
		return nil, err
	}

	authenticated, err := u.Session.IsAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	locked, err := u.Shortlist.Locked(ctx)
	if err != nil {
		return nil, err
	}
	shortlist, err := u.Shortlist.List(ctx)
	if err != nil {
		return nil, err
	}

	score := scoring.ComputeScore(updated, locked != nil, authenticated)
	metrics.ProfileIntegrityScore.Observe(float64(score))
	fields := updatedFields(input.Profile)

	h.logger.Info("profile updated", map[string]interface{}{
		"userId": u.ID,
		"fields": fields,
		"score":  score,
	})

	return &Output{
		Profile:       *updated,
		UpdatedFields: fields,
		ProfileScore:  score,
		CurrentStage:  scoring.Stage(updated, len(shortlist), locked != nil),
	}, nil
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

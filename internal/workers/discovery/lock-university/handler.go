package lockuniversity

import (
	"context"
	"fmt"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/shortlist"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "lock-university"

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
	if input.University == nil && input.UniversityID == "" {
		return nil, errors.NewValidationError("university", "university or universityId is required")
	}
	return &input, nil
}

// resolve returns the university to lock, looking an id up in the
// shortlist when no full entry was supplied.
func resolve(ctx context.Context, m *shortlist.Manager, input *Input) (models.University, error) {
	if input.University != nil {
		return *input.University, nil
	}
	list, err := m.List(ctx)
	if err != nil {
		return models.University{}, err
	}
	for _, u := range list {
		if u.ID == input.UniversityID {
			return u, nil
		}
	}
	return models.University{}, errors.NewUniversityNotFoundError(input.UniversityID.String())
}

// Execute locks the university remotely, then seeds its task list and
// records the lock. The review entry point also clears the shortlist.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts, err := shortlist.OptionsFor(input.EntryPoint)
	if err != nil {
		return nil, err
	}

	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}
	uni, err := resolve(ctx, u.Shortlist, input)
	if err != nil {
		return nil, err
	}

	outcome, err := u.Shortlist.Lock(ctx, uni, opts)
	if err != nil {
		return nil, err
	}

	stage := outcome.Remote.Stage
	if stage == 0 {
		stage = models.StageApplications
	}
	return &Output{
		LockedUniversity: outcome.Locked,
		Tasks:            outcome.Tasks,
		TaskProgress:     outcome.Tasks.Progress(),
		ShortlistCleared: outcome.ShortlistCleared,
		Message:          outcome.Remote.Message,
		TasksCreated:     outcome.Remote.TasksCreated,
		CurrentStage:     stage,
	}, nil
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

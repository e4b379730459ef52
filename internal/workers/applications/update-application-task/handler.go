package updateapplicationtask

import (
	"context"
	"fmt"
	"strings"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "update-application-task"

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
	input.Action = strings.ToLower(strings.TrimSpace(input.Action))
	return &input, nil
}

// universityID returns the explicit id or, failing that, the locked one.
func universityID(ctx context.Context, u *engine.User, input *Input) (string, error) {
	if input.UniversityID != "" {
		return input.UniversityID.String(), nil
	}
	locked, err := u.Shortlist.Locked(ctx)
	if err != nil {
		return "", err
	}
	if locked == nil {
		return "", errors.NewValidationError("universityId", "no university is locked")
	}
	return locked.ID.String(), nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Action {
	case ActionLoad:
	case ActionToggle, ActionUpdate:
		if input.TaskID == "" {
			return nil, errors.NewValidationError("taskId", input.Action+" requires a task id")
		}
	default:
		return nil, errors.NewInvalidActionError(input.Action)
	}

	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}
	uniID, err := universityID(ctx, u, input)
	if err != nil {
		return nil, err
	}

	var list models.TaskList
	switch input.Action {
	case ActionLoad:
		list, err = u.Tasks.Load(ctx, uniID)
	case ActionToggle:
		list, err = u.Tasks.Toggle(ctx, uniID, input.TaskID)
	case ActionUpdate:
		list, err = u.Tasks.Update(ctx, uniID, input.TaskID, input.Patch)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		UniversityID: uniID,
		Tasks:        list,
		Progress:     list.Progress(),
		Completed:    list.Completed(),
		Total:        list.Total(),
		IsComplete:   list.IsComplete(),
	}
	if i := list.Index(input.TaskID); input.TaskID != "" && i >= 0 {
		task := list[i]
		out.Task = &task
	}

	h.logger.Info("application tasks processed", map[string]interface{}{
		"userId":       u.ID,
		"universityId": uniID,
		"action":       input.Action,
		"progress":     out.Progress,
	})
	return out, nil
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

package updateshortlist

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

const TaskType = "update-shortlist"

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

// target resolves the university id an action refers to.
func (input *Input) target() models.ID {
	if input.University != nil && input.University.ID != "" {
		return input.University.ID
	}
	return input.UniversityID
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}

	before, err := u.Shortlist.List(ctx)
	if err != nil {
		return nil, err
	}

	var list []models.University
	switch input.Action {
	case ActionAdd:
		if input.University == nil || input.University.ID == "" {
			return nil, errors.NewValidationError("university", "add requires the university")
		}
		list, err = u.Shortlist.Add(ctx, *input.University)
	case ActionRemove:
		if input.target() == "" {
			return nil, errors.NewValidationError("universityId", "remove requires a university id")
		}
		list, err = u.Shortlist.Remove(ctx, input.target())
	case ActionClear:
		if err = u.Shortlist.Clear(ctx); err == nil {
			list = []models.University{}
		}
	case ActionList:
		list = before
	default:
		return nil, errors.NewInvalidActionError(input.Action)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		Action:    input.Action,
		Shortlist: list,
		Count:     len(list),
		Changed:   len(list) != len(before),
	}
	if id := input.target(); id != "" {
		for _, s := range list {
			if s.ID == id {
				out.IsShortlisted = true
				break
			}
		}
	}

	h.logger.Info("shortlist updated", map[string]interface{}{
		"userId":  u.ID,
		"action":  input.Action,
		"count":   out.Count,
		"changed": out.Changed,
	})
	return out, nil
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

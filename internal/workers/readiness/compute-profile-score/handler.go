package computeprofilescore

import (
	"context"
	"fmt"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/engine"
	"studyabroad-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "compute-profile-score"

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

// Execute scores the user's profile. The cached snapshot is used unless it
// is missing or a refresh is requested; a failed refresh falls back to it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	radius := h.config.Radius
	if input.Radius != nil {
		radius = *input.Radius
	}

	u, err := h.engine.ForUser(ctx, input.UserID, input.AccessToken)
	if err != nil {
		return nil, err
	}
	authenticated, err := u.Session.IsAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := u.Profiles.Cached(ctx)
	if err != nil {
		return nil, err
	}
	if authenticated && (profile == nil || input.RefreshProfile) {
		fresh, err := u.Profiles.Get(ctx)
		switch {
		case err == nil:
			profile = fresh
		case errors.IsCode(err, errors.ErrCodeUnauthorized):
			authenticated = false
		default:
			h.logger.Warn("profile refresh failed, scoring snapshot", map[string]interface{}{
				"userId": u.ID,
				"error":  err.Error(),
			})
		}
	}

	locked, err := u.Shortlist.Locked(ctx)
	if err != nil {
		return nil, err
	}
	shortlist, err := u.Shortlist.List(ctx)
	if err != nil {
		return nil, err
	}

	breakdown := scoring.Evaluate(profile, locked != nil, authenticated)
	score := breakdown.Score()
	circle, err := scoring.CircleProgress(score, radius)
	if err != nil {
		return nil, errors.NewValidationError("radius", err.Error())
	}
	feedback := scoring.FeedbackFor(score)
	metrics.ProfileIntegrityScore.Observe(float64(score))

	missing := breakdown.Missing()
	if missing == nil {
		missing = []string{}
	}

	h.logger.Info("profile score computed", map[string]interface{}{
		"userId": u.ID,
		"score":  score,
		"tier":   feedback.Tier,
	})

	return &Output{
		ProfileScore:    score,
		ScoreTier:       feedback.Tier,
		ScoreMessage:    feedback.Message,
		ScoreColor:      feedback.Color,
		ScoreBreakdown:  breakdown,
		MissingSteps:    missing,
		ProgressCircle:  circle,
		CurrentStage:    scoring.Stage(profile, len(shortlist), locked != nil),
		IsAuthenticated: authenticated,
	}, nil
}

// Registration describes the job subscription of this worker.
func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

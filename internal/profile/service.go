// Package profile validates profile patches, forwards them to the remote
// profile service and keeps the local snapshot in step.
package profile

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/store"

	"github.com/go-playground/validator/v10"
)

// API is the remote profile service.
type API interface {
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.UserProfile, error)
}

var errNoBackend = stderrors.New("no profile service configured")

type Service struct {
	api      API
	store    store.RecordStore
	validate *validator.Validate
	logger   logger.Logger
}

// NewService builds a service over a user-scoped store.
func NewService(api API, s store.RecordStore, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{api: api, store: s, validate: newValidator(), logger: log}
}

// checked mirrors ProfileUpdate for validation; nil fields are skipped.
type checked struct {
	DegreeLevel   *string  `json:"degree_level" validate:"omitnil,oneof=bachelors masters phd unset"`
	GPA           *float64 `json:"gpa" validate:"omitnil,gte=0,lte=4"`
	IELTSScore    *float64 `json:"ielts_score" validate:"omitnil,gte=0,lte=9"`
	GREScore      *int     `json:"gre_score" validate:"omitnil,gte=260,lte=340"`
	Budget        *int64   `json:"budget" validate:"omitnil,gte=0"`
	TargetCountry *string  `json:"target_country" validate:"omitnil,max=64"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeGPA rescales a 10-point GPA to the 4-point scale.
func NormalizeGPA(gpa float64) float64 {
	if gpa > 4 {
		return gpa / 10 * 4
	}
	return gpa
}

// Normalize returns patch with the GPA rescaled and the degree lowercased.
func Normalize(patch models.ProfileUpdate) models.ProfileUpdate {
	if patch.GPA.Present() {
		patch.GPA.Value = NormalizeGPA(patch.GPA.Value)
	}
	if patch.DegreeLevel.Present() {
		patch.DegreeLevel.Value = models.DegreeLevel(strings.ToLower(strings.TrimSpace(string(patch.DegreeLevel.Value))))
	}
	if patch.TargetCountry.Present() {
		patch.TargetCountry.Value = strings.TrimSpace(patch.TargetCountry.Value)
	}
	return patch
}

// Validate checks a normalized patch. The error names the first bad field.
func (s *Service) Validate(patch models.ProfileUpdate) error {
	c := checked{
		GPA:        patch.GPA.Ptr(),
		IELTSScore: patch.IELTSScore.Ptr(),
		GREScore:   patch.GREScore.Ptr(),
		Budget:     patch.Budget.Ptr(),
	}
	if patch.DegreeLevel.Present() {
		d := string(patch.DegreeLevel.Value)
		c.DegreeLevel = &d
	}
	c.TargetCountry = patch.TargetCountry.Ptr()

	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidationError(fe.Field(), describe(fe))
	}
	return errors.NewValidationError("profile", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// Update validates patch, sends it remotely and caches the returned
// profile. A rejected or failed update leaves the snapshot unchanged.
func (s *Service) Update(ctx context.Context, patch models.ProfileUpdate) (*models.UserProfile, error) {
	if patch.IsEmpty() {
		return nil, errors.NewValidationError("profile", "at least one field is required")
	}
	patch = Normalize(patch)
	if err := s.Validate(patch); err != nil {
		return nil, err
	}

	if s.api == nil {
		return nil, errors.NewInternalError(errNoBackend)
	}
	updated, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, updated)
	return updated, nil
}

// Get fetches the remote profile and refreshes the snapshot.
func (s *Service) Get(ctx context.Context) (*models.UserProfile, error) {
	if s.api == nil {
		return nil, errors.NewInternalError(errNoBackend)
	}
	p, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, p)
	return p, nil
}

// Cached returns the local snapshot, nil when none is stored.
func (s *Service) Cached(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	found, err := s.store.Get(ctx, store.KeyUserProfile, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// cache stores the snapshot. The remote write already succeeded, so a
// local failure is only logged.
func (s *Service) cache(ctx context.Context, p *models.UserProfile) {
	if err := s.store.Put(ctx, store.KeyUserProfile, p); err != nil {
		s.logger.Warn("failed to cache profile snapshot", map[string]interface{}{"error": err.Error()})
	}
}

package discovery

import (
	"context"

	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// ProfileReader returns the signed-in user's profile.
type ProfileReader interface {
	Get(ctx context.Context) (*models.UserProfile, error)
}

// Board is one discovery page load.
type Board struct {
	Profile      *models.UserProfile `json:"profile,omitempty"`
	Total        int                 `json:"total"`
	Universities []models.University `json:"-"`
	Cards        []Card              `json:"cards"`
}

type Loader struct {
	source   Source
	profiles ProfileReader
	memo     *Memo
	logger   logger.Logger
}

// NewLoader builds a loader. memo may be shared across loads; nil gets a
// private one.
func NewLoader(source Source, profiles ProfileReader, memo *Memo, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if memo == nil {
		memo = &Memo{}
	}
	return &Loader{source: source, profiles: profiles, memo: memo, logger: log}
}

// Load fetches the profile and recommendations concurrently, then filters
// and annotates the result. A failed profile fetch is logged and leaves
// Board.Profile nil; a failed recommendation fetch fails the load.
func (l *Loader) Load(ctx context.Context, q Query, shortlisted func(models.ID) bool) (*Board, error) {
	var (
		profile *models.UserProfile
		unis    []models.University
	)

	g, gctx := errgroup.WithContext(ctx)
	if l.profiles != nil {
		g.Go(func() error {
			p, err := l.profiles.Get(gctx)
			if err != nil {
				l.logger.Warn("profile unavailable during discovery load", map[string]interface{}{
					"error": err.Error(),
				})
				return nil
			}
			profile = p
			return nil
		})
	}
	g.Go(func() error {
		u, err := l.source.Recommendations(gctx)
		if err != nil {
			return err
		}
		unis = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	NormalizeTiers(unis)
	visible := l.memo.Filter(unis, q)
	metrics.UniversitiesFiltered.Observe(float64(len(visible)))

	return &Board{
		Profile:      profile,
		Total:        len(unis),
		Universities: visible,
		Cards:        Annotate(visible, shortlisted),
	}, nil
}

package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/models"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileSource serves a catalog kept in a YAML (or JSON) file and reloads it
// when the file changes.
type FileSource struct {
	path   string
	logger logger.Logger

	mu           sync.RWMutex
	universities []models.University
}

type catalogFile struct {
	Universities []catalogEntry `yaml:"universities"`
}

type catalogEntry struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Country        string  `yaml:"country"`
	Location       string  `yaml:"location"`
	TuitionFee     float64 `yaml:"tuition_fee"`
	AcceptanceRate float64 `yaml:"acceptance_rate"`
	Ranking        *int    `yaml:"ranking"`
	MatchTier      string  `yaml:"match_tier"`
}

func NewFileSource(path string, log logger.Logger) (*FileSource, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &FileSource{path: path, logger: log}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Recommendations(context.Context) ([]models.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.universities), nil
}

func (s *FileSource) reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return errors.NewCatalogUnavailableError(s.path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return errors.NewCatalogUnavailableError(s.path, fmt.Errorf("parse catalog: %w", err))
	}

	unis := make([]models.University, 0, len(f.Universities))
	for i, e := range f.Universities {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		unis = append(unis, models.University{
			ID:             models.ID(id),
			Name:           e.Name,
			Country:        e.Country,
			Location:       e.Location,
			TuitionFeeUSD:  e.TuitionFee,
			AcceptanceRate: e.AcceptanceRate,
			Ranking:        e.Ranking,
			MatchTier:      models.MatchTier(e.MatchTier),
		})
	}

	s.mu.Lock()
	s.universities = unis
	s.mu.Unlock()
	s.logger.Info("university catalog loaded", map[string]interface{}{
		"path":  s.path,
		"count": len(unis),
	})
	return nil
}

// Watch reloads the catalog on every write to its file until ctx is done.
// A broken edit keeps the previous catalog.
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors replace files by rename, so watch the directory.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("catalog reload failed", map[string]interface{}{"error": err.Error()})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

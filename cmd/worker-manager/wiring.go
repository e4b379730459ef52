package main

import (
	"context"
	"fmt"
	"time"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/database"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/discovery"
	"studyabroad-workers/internal/engine"
	updateapplicationtask "studyabroad-workers/internal/workers/applications/update-application-task"
	filteruniversities "studyabroad-workers/internal/workers/discovery/filter-universities"
	lockuniversity "studyabroad-workers/internal/workers/discovery/lock-university"
	updateshortlist "studyabroad-workers/internal/workers/discovery/update-shortlist"
	computeprofilescore "studyabroad-workers/internal/workers/readiness/compute-profile-score"
	updateprofile "studyabroad-workers/internal/workers/readiness/update-profile"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// jobHandler is what every worker package's Handler provides.
type jobHandler interface {
	camunda.JobHandler
	Registration() camunda.Registration
	IsEnabled() bool
	GetTaskType() string
}

func buildHandlers(cfg *config.Config, eng *engine.Engine, log logger.Logger, rec camunda.JobRecorder) ([]jobHandler, error) {
	cps, err := computeprofilescore.NewHandler(computeprofilescore.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	up, err := updateprofile.NewHandler(updateprofile.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	fu, err := filteruniversities.NewHandler(filteruniversities.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	us, err := updateshortlist.NewHandler(updateshortlist.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	lu, err := lockuniversity.NewHandler(lockuniversity.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	uat, err := updateapplicationtask.NewHandler(updateapplicationtask.HandlerOptions{AppConfig: cfg, Engine: eng, Logger: log, Recorder: rec})
	if err != nil {
		return nil, err
	}
	return []jobHandler{cps, up, fu, us, lu, uat}, nil
}

// newCatalog selects the recommendation source. The api source returns nil
// so the engine asks the per-user recommendation service.
func newCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (discovery.Source, []readinessCheck, error) {
	switch cfg.Discovery.Source {
	case config.DiscoverySourceAPI:
		return nil, nil, nil

	case config.DiscoverySourceElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")

		return elasticsearchSource(es.Client, cfg.Discovery), []readinessCheck{{"elasticsearch", es.Ping}}, nil

	case config.DiscoverySourceFile:
		src, err := discovery.NewFileSource(cfg.Discovery.CatalogPath, log.Named("catalog"))
		if err != nil {
			return nil, nil, err
		}
		go func() {
			if err := src.Watch(ctx); err != nil {
				zapLog.Warn("catalog watch stopped", zap.Error(err))
			}
		}()
		zapLog.Info("Catalog loaded", zap.String("path", cfg.Discovery.CatalogPath))
		return src, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown discovery source %q", cfg.Discovery.Source)
	}
}

// elasticsearchSource builds the index source. Without es_prefilter the index
// returns the whole catalog, since a job may widen regions or budget.
func elasticsearchSource(client *elasticsearch.Client, cfg config.DiscoveryConfig) *discovery.ElasticsearchSource {
	src := discovery.NewElasticsearchSource(client, cfg.Index, cfg.MaxResults)
	if !cfg.Prefilter {
		return src
	}
	q := discovery.DefaultQuery()
	if cfg.DefaultBudget > 0 {
		q.BudgetCeiling = cfg.DefaultBudget
	}
	if len(cfg.Regions) > 0 {
		q.Regions = append([]string(nil), cfg.Regions...)
	}
	return src.WithPrefilter(q)
}

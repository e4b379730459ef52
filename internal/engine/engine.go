// Package engine assembles the per-user services a job works against.
package engine

import (
	"context"
	"strings"

	"studyabroad-workers/internal/backend"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/discovery"
	"studyabroad-workers/internal/profile"
	"studyabroad-workers/internal/session"
	"studyabroad-workers/internal/shortlist"
	"studyabroad-workers/internal/store"
	"studyabroad-workers/internal/tasks"
)

type Options struct {
	Store   store.RecordStore
	Backend *backend.Client
	// Catalog replaces the per-user recommendation service when set.
	Catalog discovery.Source
	Memo    *discovery.Memo
	Logger  logger.Logger
}

type Engine struct {
	store   store.RecordStore
	backend *backend.Client
	catalog discovery.Source
	memo    *discovery.Memo
	logger  logger.Logger
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	memo := opts.Memo
	if memo == nil {
		memo = &discovery.Memo{}
	}
	return &Engine{
		store:   opts.Store,
		backend: opts.Backend,
		catalog: opts.Catalog,
		memo:    memo,
		logger:  log,
	}
}

// User bundles the services bound to one user's records and session.
type User struct {
	ID        string
	Store     store.RecordStore
	Session   *session.Manager
	Backend   *backend.Client
	Profiles  *profile.Service
	Tasks     *tasks.Tracker
	Shortlist *shortlist.Manager
	Discovery *discovery.Loader
}

// ForUser scopes every service to userID. A non-empty accessToken is
// persisted first so remote calls carry it.
func (e *Engine) ForUser(ctx context.Context, userID, accessToken string) (*User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required")
	}
	log := e.logger.WithFields(map[string]interface{}{"userId": userID})
	s := store.Scoped(e.store, userID)

	sess := session.NewManager(s, log.Named("session"))
	if accessToken != "" {
		if err := sess.Save(ctx, accessToken, userID); err != nil {
			return nil, err
		}
	}

	u := &User{ID: userID, Store: s, Session: sess}
	var (
		api    profile.API
		locker shortlist.Locker
	)
	if e.backend != nil {
		u.Backend = e.backend.ForUser(sess, sess.OnUnauthorized)
		api, locker = u.Backend, u.Backend
	}

	u.Profiles = profile.NewService(api, s, log.Named("profile"))
	u.Tasks = tasks.NewTracker(s, log.Named("tasks"))
	u.Shortlist = shortlist.NewManager(s, u.Tasks, locker, log.Named("shortlist"))

	source := e.catalog
	if source == nil && u.Backend != nil {
		source = discovery.NewAPISource(u.Backend)
	}
	if source != nil {
		u.Discovery = discovery.NewLoader(source, u.Profiles, e.memo, log.Named("discovery"))
	}
	return u, nil
}

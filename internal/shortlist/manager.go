// Package shortlist manages the user's candidate universities and the lock
// transition that commits one of them.
package shortlist

import (
	"context"
	stderrors "errors"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
	"studyabroad-workers/internal/models"
	"studyabroad-workers/internal/store"
	"studyabroad-workers/internal/tasks"
)

var errNoLocker = stderrors.New("no lock service configured")

// Locker is the remote lock service.
type Locker interface {
	Lock(ctx context.Context, universityID string) (*models.LockResult, error)
}

type LockOptions struct {
	ClearShortlistAfterLock bool
	EntryPoint              string
}

// OptionsFor maps a lock entry point to its options. The review flow
// clears the shortlist after a successful lock; discovery does not.
func OptionsFor(entryPoint string) (LockOptions, error) {
	switch entryPoint {
	case models.EntryDiscovery, "":
		return LockOptions{EntryPoint: models.EntryDiscovery}, nil
	case models.EntryReview:
		return LockOptions{EntryPoint: models.EntryReview, ClearShortlistAfterLock: true}, nil
	default:
		return LockOptions{}, errors.NewValidationError("entryPoint", "must be discovery or review")
	}
}

type Manager struct {
	store   store.RecordStore
	tasks   *tasks.Tracker
	locker  Locker
	logger  logger.Logger
	nowFunc func() time.Time
}

// NewManager builds a manager over a user-scoped store. locker may be nil
// when only shortlist operations are needed.
func NewManager(s store.RecordStore, tracker *tasks.Tracker, locker Locker, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if tracker == nil {
		tracker = tasks.NewTracker(s, log)
	}
	return &Manager{store: s, tasks: tracker, locker: locker, logger: log, nowFunc: time.Now}
}

// List returns the shortlist in insertion order.
func (m *Manager) List(ctx context.Context) ([]models.University, error) {
	var list []models.University
	found, err := m.store.Get(ctx, store.KeyShortlist, &list)
	if err != nil {
		return nil, err
	}
	if !found || list == nil {
		list = []models.University{}
	}
	return list, nil
}

func (m *Manager) IsShortlisted(ctx context.Context, universityID models.ID) (bool, error) {
	list, err := m.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(list, universityID) >= 0, nil
}

// Add appends u unless an entry with the same id exists.
func (m *Manager) Add(ctx context.Context, u models.University) ([]models.University, error) {
	list, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if indexOf(list, u.ID) >= 0 {
		return list, nil
	}
	list = append(list, u)
	if err := m.store.Put(ctx, store.KeyShortlist, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Remove drops the entry with universityID, if any.
func (m *Manager) Remove(ctx context.Context, universityID models.ID) ([]models.University, error) {
	list, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(list, universityID)
	if i < 0 {
		return list, nil
	}
	list = append(list[:i:i], list[i+1:]...)
	if err := m.store.Put(ctx, store.KeyShortlist, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Clear deletes the persisted shortlist.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Delete(ctx, store.KeyShortlist)
}

// Locked returns the locked university, nil when none.
func (m *Manager) Locked(ctx context.Context) (*models.LockedUniversity, error) {
	var locked models.LockedUniversity
	found, err := m.store.Get(ctx, store.KeyLockedUniversity, &locked)
	if err != nil || !found {
		return nil, err
	}
	return &locked, nil
}

// LockOutcome is what a committed lock produced.
type LockOutcome struct {
	Locked           models.LockedUniversity `json:"lockedUniversity"`
	Tasks            models.TaskList         `json:"tasks"`
	Remote           models.LockResult       `json:"remote"`
	ShortlistCleared bool                    `json:"shortlistCleared"`
}

// Lock commits u as the locked university. The remote lock is called
// first; nothing local changes unless it succeeds. Local writes then go
// tasks, locked record, shortlist clear. A failed local write restores
// what was already written.
func (m *Manager) Lock(ctx context.Context, u models.University, opts LockOptions) (*LockOutcome, error) {
	entry := opts.EntryPoint
	if entry == "" {
		entry = models.EntryDiscovery
	}
	uniID := u.ID.String()
	log := m.logger.WithFields(map[string]interface{}{
		"universityId": uniID,
		"entryPoint":   entry,
	})

	if m.locker == nil {
		return nil, errors.NewInternalError(errNoLocker)
	}
	remote, err := m.locker.Lock(ctx, uniID)
	if err != nil {
		metrics.UniversityLocks.WithLabelValues(entry, "remote_failed").Inc()
		log.Warn("remote lock failed", map[string]interface{}{"error": err.Error()})
		if stdErr, ok := errors.AsStandard(err); ok && stdErr.Code == errors.ErrCodeUnauthorized {
			return nil, err
		}
		return nil, errors.NewLockFailedError(uniID, err)
	}

	snap, err := m.snapshot(ctx, uniID)
	if err != nil {
		metrics.UniversityLocks.WithLabelValues(entry, "local_failed").Inc()
		return nil, err
	}

	out := &LockOutcome{Remote: *remote}
	var undo []func(context.Context) error

	list, err := m.tasks.Seed(ctx, uniID)
	if err != nil {
		return nil, m.abort(ctx, log, entry, undo, err)
	}
	undo = append(undo, snap.restoreTasks(m, uniID))
	out.Tasks = list

	out.Locked = models.LockedUniversity{University: u, LockedAt: m.nowFunc().UTC(), EntryPoint: entry}
	if err := m.store.Put(ctx, store.KeyLockedUniversity, out.Locked); err != nil {
		return nil, m.abort(ctx, log, entry, undo, err)
	}
	undo = append(undo, snap.restoreLocked(m))

	if opts.ClearShortlistAfterLock {
		if err := m.Clear(ctx); err != nil {
			return nil, m.abort(ctx, log, entry, undo, err)
		}
		out.ShortlistCleared = true
	}

	metrics.UniversityLocks.WithLabelValues(entry, "success").Inc()
	log.Info("university locked", map[string]interface{}{
		"tasksSeeded":      len(out.Tasks),
		"shortlistCleared": out.ShortlistCleared,
		"stage":            remote.Stage,
	})
	return out, nil
}

// abort runs the undo steps newest first and returns cause.
func (m *Manager) abort(ctx context.Context, log logger.Logger, entry string, undo []func(context.Context) error, cause error) error {
	metrics.UniversityLocks.WithLabelValues(entry, "local_failed").Inc()
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			log.Error("lock rollback step failed", map[string]interface{}{"error": err.Error()})
		}
	}
	log.Warn("lock rolled back after local write failure", map[string]interface{}{"error": cause.Error()})
	return cause
}

type lockSnapshot struct {
	tasks     models.TaskList
	hasTasks  bool
	locked    models.LockedUniversity
	hasLocked bool
}

func (m *Manager) snapshot(ctx context.Context, uniID string) (*lockSnapshot, error) {
	snap := &lockSnapshot{}
	var err error
	if snap.hasTasks, err = m.store.Get(ctx, store.TasksKey(uniID), &snap.tasks); err != nil {
		return nil, err
	}
	if snap.hasLocked, err = m.store.Get(ctx, store.KeyLockedUniversity, &snap.locked); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *lockSnapshot) restoreTasks(m *Manager, uniID string) func(context.Context) error {
	return func(ctx context.Context) error {
		if s.hasTasks {
			return m.store.Put(ctx, store.TasksKey(uniID), s.tasks)
		}
		return m.tasks.Discard(ctx, uniID)
	}
}

func (s *lockSnapshot) restoreLocked(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		if s.hasLocked {
			return m.store.Put(ctx, store.KeyLockedUniversity, s.locked)
		}
		return m.store.Delete(ctx, store.KeyLockedUniversity)
	}
}

func indexOf(list []models.University, id models.ID) int {
	for i, u := range list {
		if u.ID == id {
			return i
		}
	}
	return -1
}

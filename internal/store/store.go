// Package store persists per-user JSON records: session token, profile
// snapshot, shortlist, locked university and application task lists.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/common/metrics"
)

// Well-known record keys.
const (
	KeyAccessToken      = "access_token"
	KeyLegacyToken      = "token"
	KeyUserID           = "user_id"
	KeyUserProfile      = "user_profile"
	KeyLockedUniversity = "locked_university"
	KeyShortlist        = "university_shortlist"
	taskKeyPrefix       = "tasks_"
)

// TasksKey is the record key of the task list of one university.
func TasksKey(universityID string) string {
	return taskKeyPrefix + universityID
}

// RecordStore is a key/value store of JSON documents. Get reports
// found=false for a missing or undecodable record; only transport failures
// surface as errors.
type RecordStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Put(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// Scoped returns a view of s whose keys are prefixed with the user id.
func Scoped(s RecordStore, userID string) RecordStore {
	return &scoped{inner: s, prefix: fmt.Sprintf("user:%s:", userID)}
}

type scoped struct {
	inner  RecordStore
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return s.inner.Get(ctx, s.prefix+key, dest)
}

func (s *scoped) Put(ctx context.Context, key string, value interface{}) error {
	return s.inner.Put(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// decode unmarshals raw into dest. A corrupt record is logged and counted,
// then reported as absent with dest left untouched.
func decode(log logger.Logger, key string, raw []byte, dest interface{}) bool {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		log.Error("record destination must be a non-nil pointer", map[string]interface{}{"key": key})
		return false
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		metrics.StoreReadCorrupt.Inc()
		log.Warn("discarding corrupt record", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	target.Elem().Set(fresh.Elem())
	return true
}

package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "sa:", ttl, logger.NewTestLogger(t)), mr
}

// storeContract runs the behaviour every adapter shares.
func storeContract(t *testing.T, s RecordStore) {
	ctx := context.Background()

	var missing models.TaskList
	found, err := s.Get(ctx, "nothing-here", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	gpa := 3.6
	in := models.UserProfile{UserID: 7, GPA: &gpa, TargetCountry: "Canada"}
	require.NoError(t, s.Put(ctx, KeyUserProfile, in))

	var out models.UserProfile
	found, err = s.Get(ctx, KeyUserProfile, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, s.Put(ctx, KeyUserProfile, models.UserProfile{UserID: 8}))
	found, err = s.Get(ctx, KeyUserProfile, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(8), out.UserID, "last write wins")

	require.NoError(t, s.Delete(ctx, KeyUserProfile))
	found, err = s.Get(ctx, KeyUserProfile, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Delete(ctx, KeyUserProfile), "deleting an absent key is a no-op")
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore(logger.NewTestLogger(t)))
}

func TestRedisStore_Contract(t *testing.T) {
	s, _ := newMiniredisStore(t, 0)
	storeContract(t, s)
}

func TestScoped_PrefixesKeys(t *testing.T) {
	mem := NewMemoryStore(nil)
	ctx := context.Background()

	alice := Scoped(mem, "alice")
	bob := Scoped(mem, "bob")
	require.NoError(t, alice.Put(ctx, KeyShortlist, []string{"1"}))

	var got []string
	found, err := bob.Get(ctx, KeyShortlist, &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = mem.Get(ctx, "user:alice:"+KeyShortlist, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"1"}, got)
}

func TestTasksKey(t *testing.T) {
	assert.Equal(t, "tasks_42", TasksKey("42"))
}

func TestRedisStore_TTLAndPrefix(t *testing.T) {
	s, mr := newMiniredisStore(t, time.Hour)
	require.NoError(t, s.Put(context.Background(), KeyUserID, "u-1"))

	assert.True(t, mr.Exists("sa:user_id"))
	assert.Equal(t, time.Hour, mr.TTL("sa:user_id"))
}

func TestCorruptRecordReadsAsAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		mem := NewMemoryStore(logger.NewTestLogger(t))
		mem.PutRaw(KeyShortlist, []byte("{not json"))

		var list []models.University
		found, err := mem.Get(ctx, KeyShortlist, &list)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("redis", func(t *testing.T) {
		s, mr := newMiniredisStore(t, 0)
		require.NoError(t, mr.Set("sa:"+KeyShortlist, "[{\"id\":"))

		var list []models.University
		found, err := s.Get(ctx, KeyShortlist, &list)
		require.NoError(t, err)
		assert.False(t, found)
	})
	t.Run("wrong field type leaves dest untouched", func(t *testing.T) {
		mem := NewMemoryStore(logger.NewTestLogger(t))
		mem.PutRaw(KeyShortlist, []byte(`[{"id":"1","name":"Toronto","tuition_fee":"lots"}]`))

		var list []models.University
		found, err := mem.Get(ctx, KeyShortlist, &list)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, list)

		keep := []models.University{{ID: "9"}}
		found, err = mem.Get(ctx, KeyShortlist, &keep)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, []models.University{{ID: "9"}}, keep)
	})
}

func TestRedisStore_TransportFailures(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("connection reset")

	t.Run("get", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("user_profile").SetErr(boom)

		var p models.UserProfile
		found, err := NewRedisStore(client, "", 0, nil).Get(ctx, KeyUserProfile, &p)
		assert.False(t, found)
		assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectDel("university_shortlist").SetErr(boom)

		err := NewRedisStore(client, "", 0, nil).Delete(ctx, KeyShortlist)
		assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("put on a closed server", func(t *testing.T) {
		s, mr := newMiniredisStore(t, 0)
		mr.Close()

		err := s.Put(ctx, KeyUserID, "u-1")
		assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
	})
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	getQuery := regexp.QuoteMeta(`SELECT value FROM user_records WHERE key = $1`)
	upsertQuery := regexp.QuoteMeta(`INSERT INTO user_records (key, value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`)
	deleteQuery := regexp.QuoteMeta(`DELETE FROM user_records WHERE key = $1`)

	newStore := func(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return NewPostgresStore(db, "user_records", logger.NewTestLogger(t)), mock
	}

	t.Run("get found", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("user:1:locked_university").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"id":3,"name":"MIT","country":"USA"}`)))

		var locked models.LockedUniversity
		found, err := Scoped(s, "1").Get(ctx, KeyLockedUniversity, &locked)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, models.ID("3"), locked.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get missing", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("user_id").WillReturnRows(sqlmock.NewRows([]string{"value"}))

		var id string
		found, err := s.Get(ctx, KeyUserID, &id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("get corrupt", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectQuery(getQuery).WithArgs("user_id").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`nope`)))

		var id string
		found, err := s.Get(ctx, KeyUserID, &id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("put upserts", func(t *testing.T) {
		s, mock := newStore(t)
		payload, _ := json.Marshal([]string{"a"})
		mock.ExpectExec(upsertQuery).WithArgs("university_shortlist", payload).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Put(ctx, KeyShortlist, []string{"a"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete failure", func(t *testing.T) {
		s, mock := newStore(t)
		mock.ExpectExec(deleteQuery).WithArgs("university_shortlist").
			WillReturnError(stderrors.New("db down"))

		err := s.Delete(ctx, KeyShortlist)
		assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
	})
}

func TestNew_SelectsBackend(t *testing.T) {
	mem, err := New(config.StoreConfig{Backend: config.StoreBackendMemory}, Backends{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	_, err = New(config.StoreConfig{Backend: config.StoreBackendRedis}, Backends{}, nil)
	assert.Error(t, err)

	_, err = New(config.StoreConfig{Backend: "etcd"}, Backends{}, nil)
	assert.Error(t, err)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
)

// PostgresStore keeps records in a single key/value table. The table is
// created by database.EnsureRecordsTable.
type PostgresStore struct {
	db     *sql.DB
	table  string
	logger logger.Logger

	getQuery    string
	upsertQuery string
	deleteQuery string
}

func NewPostgresStore(db *sql.DB, table string, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PostgresStore{
		db:          db,
		table:       table,
		logger:      log,
		getQuery:    fmt.Sprintf("SELECT value FROM %s WHERE key = $1", table),
		upsertQuery: fmt.Sprintf("INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()", table),
		deleteQuery: fmt.Sprintf("DELETE FROM %s WHERE key = $1", table),
	}
}

func (s *PostgresStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStoreUnavailableError("get", key, err)
	}
	return decode(s.logger, key, raw, dest), nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if _, err := s.db.ExecContext(ctx, s.upsertQuery, key, payload); err != nil {
		return errors.NewStoreUnavailableError("put", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, key); err != nil {
		return errors.NewStoreUnavailableError("delete", key, err)
	}
	return nil
}

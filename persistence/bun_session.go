/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/stingray/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type bunSession struct {
	id     string
	db     *bun.DB
	tx     *bun.Tx
	logger database.Logger
	closed bool
}

// NewSession returns a Session backed by the provided Bun database. Writes
// lazily begin a transaction; Commit closes it and the next write opens a
// new one. If logger is nil the package-level database logger is used.
func NewSession(db *bun.DB, logger database.Logger) Session {
	if logger == nil {
		logger = database.GetLogger()
	}
	s := &bunSession{
		id:     uuid.NewString(),
		db:     db,
		logger: logger,
	}
	s.logger.Debug("Session opened", "session", s.id)
	return s
}

// idb returns the open transaction when one exists, else the bare DB.
func (s *bunSession) idb() bun.IDB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *bunSession) ensureTx(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = &tx
	s.logger.Debug("Transaction started", "session", s.id)
	return nil
}

func (s *bunSession) Save(ctx context.Context, entity interface{}) error {
	if err := s.ensureTx(ctx); err != nil {
		return err
	}
	_, err := s.tx.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (s *bunSession) Update(ctx context.Context, entity interface{}) error {
	if err := s.ensureTx(ctx); err != nil {
		return err
	}
	_, err := s.tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (s *bunSession) Delete(ctx context.Context, entity interface{}) error {
	if err := s.ensureTx(ctx); err != nil {
		return err
	}
	_, err := s.tx.NewDelete().Model(entity).WherePK().Exec(ctx)
	return err
}

func (s *bunSession) Persist(ctx context.Context, entity interface{}) error {
	if err := s.ensureTx(ctx); err != nil {
		return err
	}
	switch {
	case s.db.HasFeature(feature.InsertOnConflict):
		_, err := s.tx.NewInsert().Model(entity).On("CONFLICT DO NOTHING").Exec(ctx)
		return err
	case s.db.HasFeature(feature.InsertOnDuplicateKey):
		_, err := s.tx.NewInsert().Model(entity).Ignore().Exec(ctx)
		return err
	default:
		_, err := s.tx.NewInsert().Model(entity).Exec(ctx)
		if err != nil {
			if ok, kind := database.IsSQLError(err); ok && kind == database.DuplicateKeyErr {
				return nil
			}
		}
		return err
	}
}

// Evict is a no-op: Bun keeps no identity map, so there is no session state
// to detach the entity from.
func (s *bunSession) Evict(interface{}) {}

func (s *bunSession) Refresh(ctx context.Context, entity interface{}) error {
	return s.idb().NewSelect().Model(entity).WherePK().Scan(ctx)
}

func (s *bunSession) NewSelect() *bun.SelectQuery {
	return s.idb().NewSelect()
}

func (s *bunSession) QuerySQL(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.idb().NewRaw(query, args...).Scan(ctx, dest)
}

func (s *bunSession) ExecSQL(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.idb().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *bunSession) CallFunction(ctx context.Context, name string, args ...interface{}) (int64, error) {
	// name is a trusted identifier; only the arguments go through
	// placeholder formatting.
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("SELECT %s(%s)", name, strings.Join(placeholders, ", "))

	rows, err := s.idb().QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()
	return scanFirstInt(rows)
}

// scanFirstInt returns the first row's integer value. No rows and a NULL
// value both yield zero.
func scanFirstInt(rows *sql.Rows) (int64, error) {
	if !rows.Next() {
		return 0, rows.Err()
	}
	var value sql.NullInt64
	if err := rows.Scan(&value); err != nil {
		return 0, err
	}
	return value.Int64, rows.Err()
}

func (s *bunSession) Commit(_ context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return err
	}
	s.logger.Debug("Transaction committed", "session", s.id)
	return nil
}

func (s *bunSession) Rollback(_ context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return err
	}
	s.logger.Debug("Transaction rolled back", "session", s.id)
	return nil
}

func (s *bunSession) Close() error {
	if s.closed {
		return nil
	}
	err := s.Rollback(context.Background())
	s.closed = true
	s.logger.Debug("Session closed", "session", s.id)
	return err
}

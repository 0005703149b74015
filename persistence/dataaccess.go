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
	"fmt"

	"github.com/tomoncle/stingray/database"
	"github.com/uptrace/bun"
)

// DataAccess is the persistence façade: every operation logs its boundary
// and delegates to the exclusively owned session. It performs no validation
// and no error translation.
type DataAccess struct {
	session Session
	logger  database.Logger
	events  *EventManager
}

// NewDataAccess wraps the session in a façade. The façade takes exclusive
// ownership of the session for its lifetime. If logger is nil the
// package-level database logger is used.
func NewDataAccess(session Session, logger database.Logger) *DataAccess {
	if logger == nil {
		logger = database.GetLogger()
	}
	return &DataAccess{session: session, logger: logger}
}

// BindEventManager wires the façade and the event manager in both
// directions: the façade fires the manager's hooks around Commit, and the
// manager's context back-reference is set to the façade.
func BindEventManager(d *DataAccess, m *EventManager) {
	d.events = m
	if m != nil {
		m.context = d
	}
}

// EventManager returns the bound event manager, or nil.
func (d *DataAccess) EventManager() *EventManager {
	return d.events
}

// Session returns the wrapped session.
func (d *DataAccess) Session() Session {
	return d.session
}

// Add inserts the entity and returns it unchanged.
func Add[T any](ctx context.Context, d *DataAccess, item *T) (*T, error) {
	d.logger.Debug("Adding entity", "type", typeName(item))
	if err := d.session.Save(ctx, item); err != nil {
		return nil, err
	}
	d.logger.Debug("Entity added", "type", typeName(item))
	return item, nil
}

// Remove deletes the entity and returns it unchanged.
func Remove[T any](ctx context.Context, d *DataAccess, item *T) (*T, error) {
	d.logger.Debug("Removing entity", "type", typeName(item))
	if err := d.session.Delete(ctx, item); err != nil {
		return nil, err
	}
	d.logger.Debug("Entity removed", "type", typeName(item))
	return item, nil
}

// Update writes the entity's state back and returns it unchanged.
func Update[T any](ctx context.Context, d *DataAccess, item *T) (*T, error) {
	d.logger.Debug("Updating entity", "type", typeName(item))
	if err := d.session.Update(ctx, item); err != nil {
		return nil, err
	}
	d.logger.Debug("Entity updated", "type", typeName(item))
	return item, nil
}

// Attach makes the entity persistent if it is not already, and returns it
// unchanged.
func Attach[T any](ctx context.Context, d *DataAccess, item *T) (*T, error) {
	d.logger.Debug("Attaching entity", "type", typeName(item))
	if err := d.session.Persist(ctx, item); err != nil {
		return nil, err
	}
	d.logger.Debug("Entity attached", "type", typeName(item))
	return item, nil
}

// Detach evicts the entity from the session and returns it unchanged.
// Eviction performs no I/O and cannot fail.
func Detach[T any](d *DataAccess, item *T) *T {
	d.logger.Debug("Detaching entity", "type", typeName(item))
	d.session.Evict(item)
	d.logger.Debug("Entity detached", "type", typeName(item))
	return item
}

// Reload overwrites the entity's in-memory state from the backing store and
// returns it.
func Reload[T any](ctx context.Context, d *DataAccess, item *T) (*T, error) {
	d.logger.Debug("Reloading entity", "type", typeName(item))
	if err := d.session.Refresh(ctx, item); err != nil {
		return nil, err
	}
	d.logger.Debug("Entity reloaded", "type", typeName(item))
	return item, nil
}

// Queryable returns a lazy, composable select builder bound to T's table.
// The "queryable built" log line fires at builder construction; the query
// itself runs only when the builder is scanned, so the log understates when
// the statement actually executes.
func Queryable[T any](d *DataAccess) *bun.SelectQuery {
	d.logger.Debug("Building queryable", "type", typeName((*T)(nil)))
	query := d.session.NewSelect().Model((*T)(nil))
	d.logger.Debug("Queryable built", "type", typeName((*T)(nil)))
	return query
}

// QuerySQL executes a raw statement and maps the rows into T.
func QuerySQL[T any](ctx context.Context, d *DataAccess, query string, args ...interface{}) ([]*T, error) {
	d.logger.Debug("Executing SQL query", "query", query, "args", fmt.Sprintf("%v", args))
	var entities []*T
	if err := d.session.QuerySQL(ctx, &entities, query, args...); err != nil {
		return nil, err
	}
	d.logger.Debug("SQL query executed", "rows", len(entities))
	return entities, nil
}

// ExecSQL executes a non-query statement and returns the affected-row count
// exactly as reported by the backing store.
func (d *DataAccess) ExecSQL(ctx context.Context, query string, args ...interface{}) (int64, error) {
	d.logger.Debug("Executing SQL command", "query", query, "args", fmt.Sprintf("%v", args))
	affected, err := d.session.ExecSQL(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	d.logger.Debug("SQL command executed", "rows_affected", affected)
	return affected, nil
}

// CallFunction invokes a stored function and returns the first row's integer
// result, or zero when the function returns no rows.
func (d *DataAccess) CallFunction(ctx context.Context, name string, args ...interface{}) (int64, error) {
	d.logger.Debug("Calling function", "name", name, "args", fmt.Sprintf("%v", args))
	value, err := d.session.CallFunction(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	d.logger.Debug("Function returned", "name", name, "value", value)
	return value, nil
}

// Commit fires PreSave subscribers in subscription order, commits the open
// unit of work, then fires PostSave subscribers. If the session commit
// fails, no PostSave subscriber runs and the failure propagates.
//
// The returned count is always zero: the session does not accumulate an
// affected-row total across the unit of work. Callers needing counts should
// use ExecSQL.
func (d *DataAccess) Commit(ctx context.Context) (int, error) {
	d.logger.Debug("Committing unit of work")
	if d.events != nil {
		d.events.firePreSave()
	}
	if err := d.session.Commit(ctx); err != nil {
		return 0, err
	}
	if d.events != nil {
		d.events.firePostSave()
	}
	d.logger.Debug("Unit of work committed")
	return 0, nil
}

// Rollback abandons the open unit of work. No hooks fire.
func (d *DataAccess) Rollback(ctx context.Context) error {
	d.logger.Debug("Rolling back unit of work")
	return d.session.Rollback(ctx)
}

// Close rolls back any open work and releases the session.
func (d *DataAccess) Close() error {
	d.logger.Debug("Closing data access")
	return d.session.Close()
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

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

	"github.com/uptrace/bun"
)

// Session is the unit-of-work handle the façade delegates to. A session is
// exclusively owned by one DataAccess for its lifetime and is not safe for
// concurrent use; one logical unit of work per session instance.
type Session interface {
	// Save inserts the entity into the backing store.
	Save(ctx context.Context, entity interface{}) error

	// Update writes the entity's current state back by primary key.
	Update(ctx context.Context, entity interface{}) error

	// Delete removes the entity by primary key.
	Delete(ctx context.Context, entity interface{}) error

	// Persist inserts the entity if it is not already present; an existing
	// row with the same key is left untouched.
	Persist(ctx context.Context, entity interface{}) error

	// Evict detaches the entity from the session. It performs no I/O.
	Evict(entity interface{})

	// Refresh re-reads the entity's row and overwrites its in-memory state.
	Refresh(ctx context.Context, entity interface{}) error

	// NewSelect returns a lazy select builder scoped to the session, so a
	// query composed inside an open unit of work observes its pending writes.
	NewSelect() *bun.SelectQuery

	// QuerySQL executes a raw statement and scans the rows into dest.
	QuerySQL(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// ExecSQL executes a non-query statement and returns the affected-row
	// count reported by the backing store.
	ExecSQL(ctx context.Context, query string, args ...interface{}) (int64, error)

	// CallFunction invokes a stored function and returns the first row's
	// integer result, or zero when no rows are returned.
	CallFunction(ctx context.Context, name string, args ...interface{}) (int64, error)

	// Commit commits the open unit of work. Committing a session with no
	// pending work succeeds as a no-op.
	Commit(ctx context.Context) error

	// Rollback abandons the open unit of work.
	Rollback(ctx context.Context) error

	// Close rolls back any open work and releases the session.
	Close() error
}

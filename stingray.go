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

// Package stingray is a thin persistence façade over the Bun ORM: typed CRUD
// delegation, commit with ordered pre/post-save hooks, raw SQL execution,
// and debug logging at every operation boundary.
package stingray

import (
	"context"
	"sync"

	"github.com/tomoncle/stingray/database"
	"github.com/tomoncle/stingray/persistence"
	"github.com/tomoncle/stingray/types"
	"github.com/uptrace/bun"
)

// Store is the typed view over the persistence façade for one entity shape.
type Store[T any] interface {
	// Add inserts the entity and returns it unchanged.
	Add(ctx context.Context, item *T) (*T, error)

	// Remove deletes the entity by primary key and returns it unchanged.
	Remove(ctx context.Context, item *T) (*T, error)

	// Update writes the entity's state back and returns it unchanged.
	Update(ctx context.Context, item *T) (*T, error)

	// Attach makes the entity persistent if it is not already present.
	Attach(ctx context.Context, item *T) (*T, error)

	// Detach evicts the entity from the session; it performs no I/O.
	Detach(item *T) *T

	// Reload overwrites the entity's in-memory state from the backing store.
	Reload(ctx context.Context, item *T) (*T, error)

	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Query executes a raw query and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Select returns a lazy Bun select builder bound to the entity's table.
	Select() *bun.SelectQuery

	// Commit fires PreSave hooks, commits the unit of work, then fires
	// PostSave hooks. The returned count is always zero.
	Commit(ctx context.Context) (int, error)

	// Rollback abandons the open unit of work without firing hooks.
	Rollback(ctx context.Context) error

	// DataAccess returns the underlying façade shared by all operations.
	DataAccess() *persistence.DataAccess
}

type baseStoreImpl[T any] struct {
	access *persistence.DataAccess
	once   sync.Once
}

// NewStore returns a Store bound to an explicit data-access façade.
func NewStore[T any](access *persistence.DataAccess) Store[T] {
	return &baseStoreImpl[T]{access: access}
}

// NewDefaultStore returns a Store that lazily opens a session on the global
// database connection the first time it is used.
func NewDefaultStore[T any]() Store[T] {
	return &baseStoreImpl[T]{}
}

func (s *baseStoreImpl[T]) data() *persistence.DataAccess {
	s.once.Do(func() {
		if s.access == nil {
			session := persistence.NewSession(database.GetDB(), nil)
			s.access = persistence.NewDataAccess(session, nil)
		}
	})
	return s.access
}

func (s *baseStoreImpl[T]) Add(ctx context.Context, item *T) (*T, error) {
	return persistence.Add(ctx, s.data(), item)
}

func (s *baseStoreImpl[T]) Remove(ctx context.Context, item *T) (*T, error) {
	return persistence.Remove(ctx, s.data(), item)
}

func (s *baseStoreImpl[T]) Update(ctx context.Context, item *T) (*T, error) {
	return persistence.Update(ctx, s.data(), item)
}

func (s *baseStoreImpl[T]) Attach(ctx context.Context, item *T) (*T, error) {
	return persistence.Attach(ctx, s.data(), item)
}

func (s *baseStoreImpl[T]) Detach(item *T) *T {
	return persistence.Detach(s.data(), item)
}

func (s *baseStoreImpl[T]) Reload(ctx context.Context, item *T) (*T, error) {
	return persistence.Reload(ctx, s.data(), item)
}

func (s *baseStoreImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return persistence.Get[T](ctx, s.data(), id)
}

func (s *baseStoreImpl[T]) All(ctx context.Context) ([]*T, error) {
	return persistence.All[T](ctx, s.data())
}

func (s *baseStoreImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return persistence.List[T](ctx, s.data(), filter)
}

func (s *baseStoreImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return persistence.Page[T](ctx, s.data(), page)
}

func (s *baseStoreImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return persistence.QuerySQL[T](ctx, s.data(), query, args...)
}

func (s *baseStoreImpl[T]) Select() *bun.SelectQuery {
	return persistence.Queryable[T](s.data())
}

func (s *baseStoreImpl[T]) Commit(ctx context.Context) (int, error) {
	return s.data().Commit(ctx)
}

func (s *baseStoreImpl[T]) Rollback(ctx context.Context) error {
	return s.data().Rollback(ctx)
}

func (s *baseStoreImpl[T]) DataAccess() *persistence.DataAccess {
	return s.data()
}

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

	"github.com/tomoncle/stingray/types"
)

// Get returns a single entity by its identifier.
func Get[T any](ctx context.Context, d *DataAccess, id interface{}) (*T, error) {
	d.logger.Debug("Getting entity", "type", typeName((*T)(nil)), "id", id)
	var entity T
	err := d.session.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// All returns every entity of T.
func All[T any](ctx context.Context, d *DataAccess) ([]*T, error) {
	d.logger.Debug("Listing all entities", "type", typeName((*T)(nil)))
	var entities []*T
	err := d.session.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

// List returns the entities matching the filter, or all entities when the
// filter is nil.
func List[T any](ctx context.Context, d *DataAccess, filter *types.QueryFilter) ([]*T, error) {
	d.logger.Debug("Listing entities", "type", typeName((*T)(nil)))
	var entities []*T
	query := d.session.NewSelect().Model(&entities)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// Page returns one page of entities together with the total match count.
func Page[T any](ctx context.Context, d *DataAccess, request *types.PageRequest) (*types.Pagination[T], error) {
	d.logger.Debug("Paging entities", "type", typeName((*T)(nil)),
		"page", request.GetPage(), "page_size", request.GetPageSize())

	var entities []*T
	query := d.session.NewSelect().Model(&entities)
	if filter := request.GetFilter(); filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}

	pagination := types.NewDefaultPagination[T](request.GetPage(), request.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}

	err = query.
		Offset(request.GetOffset()).
		Limit(request.GetPageSize()).
		Order(request.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

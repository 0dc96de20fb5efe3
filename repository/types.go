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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/roster/types"
)

// QueryOption customizes the SELECT built by a finder, e.g. WithRelation.
type QueryOption func(q *bun.SelectQuery) *bun.SelectQuery

// CrudRepository defines identity-based operations for an entity type.
type CrudRepository[T any] interface {
	// Insert assigns identities to entities in order.
	Insert(ctx context.Context, entities ...*T) error

	// FindByID returns *types.NotFoundError when no record has id.
	FindByID(ctx context.Context, id any, opts ...QueryOption) (*T, error)

	FindOptional(ctx context.Context, id any, opts ...QueryOption) (*T, bool, error)

	// FindAll returns every record, in identity order unless sorted.
	FindAll(ctx context.Context, sort types.Sort, opts ...QueryOption) ([]*T, error)

	// Update writes the given columns of entity, or all columns when none are given.
	Update(ctx context.Context, entity *T, columns ...string) error

	Delete(ctx context.Context, id any) error
}

// QueryRepository defines predicate-based reads.
type QueryRepository[T any] interface {
	Find(ctx context.Context, pred *types.Predicate, sort types.Sort, opts ...QueryOption) ([]*T, error)

	Count(ctx context.Context, pred *types.Predicate) (int, error)

	Exists(ctx context.Context, pred *types.Predicate) (bool, error)

	// Project scans the selected fields of matching records into dest, a
	// pointer to a slice of structs whose bun tags name the fields. A field is
	// a column ("username") or a relation column ("team.name"); relations are
	// left-joined so a missing relation scans as the zero value.
	Project(ctx context.Context, pred *types.Predicate, sort types.Sort, dest any, fields ...string) error

	// Pluck scans a single column of matching records into dest, a pointer to
	// a slice of scalars.
	Pluck(ctx context.Context, field string, pred *types.Predicate, sort types.Sort, dest any) error
}

// PageQueryRepository defines pagination over predicate matches.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, pred *types.Predicate, req *types.PageRequest, opts ...QueryOption) (*types.Page[*T], error)
}

// MutationRepository defines set-based writes that bypass entity loading.
type MutationRepository[T any] interface {
	// BulkUpdate applies mutations to every match atomically and returns
	// the number of matched records.
	BulkUpdate(ctx context.Context, pred *types.Predicate, mutations ...types.Mutation) (int, error)
}

// Repository combines every operation and exposes the Bun metadata and query
// builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	QueryRepository[T]
	PageQueryRepository[T]
	MutationRepository[T]

	// WithDB returns a repository bound to db, typically a bun.Tx.
	WithDB(db bun.IDB) Repository[T]
	DB() bun.IDB
	Table() *schema.Table
	// HasField reports whether name is a column of the table.
	HasField(name string) bool
	NewSelect() *bun.SelectQuery
}

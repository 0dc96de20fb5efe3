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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/roster/types"
)

type baseRepositoryImpl[T any] struct {
	db    bun.IDB
	table *schema.Table
	name  string
}

// NewRepository returns a generic repository for T backed by db. T must be a
// bun model struct with a single primary key.
func NewRepository[T any](db bun.IDB) Repository[T] {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return &baseRepositoryImpl[T]{
		db:    db,
		table: db.Dialect().Tables().Get(typ),
		name:  typ.Name(),
	}
}

// WithRelation eagerly joins the named relation (the Go field name, e.g. "Team").
func WithRelation(name string) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery { return q.Relation(name) }
}

func (r *baseRepositoryImpl[T]) WithDB(db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, table: r.table, name: r.name}
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

func (r *baseRepositoryImpl[T]) HasField(name string) bool {
	_, ok := r.table.FieldMap[name]
	return ok
}

func (r *baseRepositoryImpl[T]) pk() string {
	return r.table.PKs[0].Name
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	batch := make([]*T, len(entities))
	copy(batch, entities)
	if _, err := r.db.NewInsert().Model(&batch).Exec(ctx); err != nil {
		return fmt.Errorf("insert %s: %w", r.name, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any, opts ...QueryOption) (*T, error) {
	entity := new(T)
	q := applyOptions(r.db.NewSelect().Model(entity), opts).
		Where("?TableAlias.? = ?", bun.Ident(r.pk()), id)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(r.name, id)
		}
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindOptional(ctx context.Context, id any, opts ...QueryOption) (*T, bool, error) {
	entity, err := r.FindByID(ctx, id, opts...)
	if errors.Is(err, types.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context, sort types.Sort, opts ...QueryOption) ([]*T, error) {
	return r.Find(ctx, nil, sort, opts...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, columns ...string) error {
	for _, c := range columns {
		if !r.HasField(c) {
			return types.NewValidationError(c, "no such field")
		}
	}
	q := r.db.NewUpdate().Model(entity).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("update %s: %w", r.name, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	res, err := r.db.NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(r.pk()), id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.NewNotFoundError(r.name, id)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, pred *types.Predicate, sort types.Sort, opts ...QueryOption) ([]*T, error) {
	if err := r.validate(pred, sort); err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	q := applyOptions(r.db.NewSelect().Model(&entities), opts)
	q = r.orderBy(r.where(q, pred), sort)
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("find %s where %s: %w", r.name, pred, err)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, pred *types.Predicate) (int, error) {
	if err := r.validate(pred, nil); err != nil {
		return 0, err
	}
	n, err := r.where(r.NewSelect(), pred).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s where %s: %w", r.name, pred, err)
	}
	return n, nil
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, pred *types.Predicate) (bool, error) {
	if err := r.validate(pred, nil); err != nil {
		return false, err
	}
	return r.where(r.NewSelect(), pred).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Project(ctx context.Context, pred *types.Predicate, sort types.Sort, dest any, fields ...string) error {
	if len(fields) == 0 {
		return types.NewValidationError("", "projection needs at least one field")
	}
	if err := r.validate(pred, sort); err != nil {
		return err
	}

	q := r.NewSelect()
	var relations []string
	joined := make(map[string][]string)
	for _, f := range fields {
		relName, col, nested := strings.Cut(f, ".")
		if !nested {
			if !r.HasField(f) {
				return types.NewValidationError(f, "no such field")
			}
			q = q.ColumnExpr("?TableAlias.? AS ?", bun.Ident(f), bun.Ident(f))
			continue
		}
		goName, err := r.relationColumn(relName, col)
		if err != nil {
			return err
		}
		if _, seen := joined[goName]; !seen {
			relations = append(relations, goName)
		}
		joined[goName] = append(joined[goName], col)
	}
	for _, name := range relations {
		cols := joined[name]
		q = q.Relation(name, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Column(cols...)
		})
	}

	q = r.orderBy(r.where(q, pred), sort)
	if err := q.Scan(ctx, dest); err != nil {
		return fmt.Errorf("project %s %v: %w", r.name, fields, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Pluck(ctx context.Context, field string, pred *types.Predicate, sort types.Sort, dest any) error {
	if !r.HasField(field) {
		return types.NewValidationError(field, "no such field")
	}
	if err := r.validate(pred, sort); err != nil {
		return err
	}
	q := r.NewSelect().ColumnExpr("?TableAlias.?", bun.Ident(field))
	q = r.orderBy(r.where(q, pred), sort)
	if err := q.Scan(ctx, dest); err != nil {
		return fmt.Errorf("pluck %s.%s: %w", r.name, field, err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pred *types.Predicate, req *types.PageRequest, opts ...QueryOption) (*types.Page[*T], error) {
	if req == nil {
		return nil, types.NewValidationError("page", "page request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := r.validate(pred, req.GetSort()); err != nil {
		return nil, err
	}

	total, err := r.Count(ctx, pred)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	if req.Beyond(total) {
		return types.NewPage(entities, req, total), nil
	}

	q := applyOptions(r.db.NewSelect().Model(&entities), opts)
	q = r.orderBy(r.where(q, pred), req.GetSort()).
		Offset(req.GetOffset()).
		Limit(req.GetSize())
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("page %s: %w", r.name, err)
	}
	return types.NewPage(entities, req, total), nil
}

func (r *baseRepositoryImpl[T]) BulkUpdate(ctx context.Context, pred *types.Predicate, mutations ...types.Mutation) (int, error) {
	if len(mutations) == 0 {
		return 0, types.NewValidationError("", "bulk update needs at least one mutation")
	}
	for _, m := range mutations {
		if m.Field == r.pk() {
			return 0, types.NewValidationError(m.Field, "identity is immutable")
		}
		if err := m.Validate(r.HasField); err != nil {
			return 0, err
		}
	}
	if err := r.validate(pred, nil); err != nil {
		return 0, err
	}

	var affected int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().Model((*T)(nil))
		for _, m := range mutations {
			col := bun.Ident(m.Field)
			if m.Kind == types.MutateIncrement {
				q = q.Set("? = ? + ?", col, col, m.Value)
			} else {
				q = q.Set("? = ?", col, m.Value)
			}
		}
		clauses := compileConditions(pred, false)
		if len(clauses) == 0 {
			q = q.Where("1 = 1")
		}
		for _, c := range clauses {
			q = q.Where(c.query, c.args...)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("bulk update %s where %s: %w", r.name, pred, err)
	}
	return int(affected), nil
}

func (r *baseRepositoryImpl[T]) validate(pred *types.Predicate, sort types.Sort) error {
	if err := pred.Validate(r.HasField); err != nil {
		return err
	}
	return sort.Validate(r.HasField)
}

// relationColumn maps "team" and "name" to the Go relation name "Team" after
// checking the joined table has the column.
func (r *baseRepositoryImpl[T]) relationColumn(relName, col string) (string, error) {
	for goName, rel := range r.table.Relations {
		if !strings.EqualFold(goName, relName) {
			continue
		}
		if _, ok := rel.JoinTable.FieldMap[col]; !ok {
			return "", types.NewValidationError(relName+"."+col, "no such field")
		}
		return goName, nil
	}
	return "", types.NewValidationError(relName+"."+col, "no such relation")
}

func (r *baseRepositoryImpl[T]) where(q *bun.SelectQuery, pred *types.Predicate) *bun.SelectQuery {
	for _, c := range compileConditions(pred, true) {
		q = q.Where(c.query, c.args...)
	}
	return q
}

// orderBy applies sort and appends the primary key as the final tie-breaker
// so equal keys keep identity order.
func (r *baseRepositoryImpl[T]) orderBy(q *bun.SelectQuery, sort types.Sort) *bun.SelectQuery {
	pk := r.pk()
	hasPK := false
	for _, o := range sort {
		q = q.OrderExpr("?TableAlias.? "+o.Direction.Name(), bun.Ident(o.Field))
		if o.Field == pk {
			hasPK = true
		}
	}
	if !hasPK {
		q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
	}
	return q
}

func applyOptions(q *bun.SelectQuery, opts []QueryOption) *bun.SelectQuery {
	for _, opt := range opts {
		if opt != nil {
			q = opt(q)
		}
	}
	return q
}

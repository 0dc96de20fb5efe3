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

package roster

import (
	"context"

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/types"
)

// TeamRepository is the team view of a session.
type TeamRepository struct {
	s     *Session
	store repository.Repository[entity.Team]
}

// Store exposes the underlying generic repository, bound to the session
// transaction. Reads through it bypass the identity map.
func (r *TeamRepository) Store() repository.Repository[entity.Team] {
	return r.store
}

// Save inserts new teams; see Session.Save.
func (r *TeamRepository) Save(ctx context.Context, teams ...*entity.Team) error {
	entities := make([]entity.Entity, len(teams))
	for i, t := range teams {
		entities[i] = t
	}
	return r.s.Save(ctx, entities...)
}

// FindByID returns the managed team, querying only when it is not tracked.
func (r *TeamRepository) FindByID(ctx context.Context, id int64) (*entity.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.closed {
		return nil, ErrSessionClosed
	}
	return r.s.team(ctx, id)
}

// FindAll returns every team, in identity order unless sorted.
func (r *TeamRepository) FindAll(ctx context.Context, sort types.Sort) ([]*entity.Team, error) {
	return r.Find(ctx, nil, sort)
}

// FindByName returns the teams named name.
func (r *TeamRepository) FindByName(ctx context.Context, name string) ([]*entity.Team, error) {
	return r.Find(ctx, types.Where(types.Eq("name", name)), nil)
}

// Find flushes pending changes and returns the managed teams matching pred.
func (r *TeamRepository) Find(ctx context.Context, pred *types.Predicate, sort types.Sort) ([]*entity.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.closed {
		return nil, ErrSessionClosed
	}
	if err := r.s.flush(ctx); err != nil {
		return nil, err
	}
	found, err := r.store.Find(ctx, pred, sort)
	if err != nil {
		return nil, err
	}
	for i, t := range found {
		found[i] = r.s.track(t, false).(*entity.Team)
	}
	return found, nil
}

// Count flushes pending changes and counts the teams matching pred.
func (r *TeamRepository) Count(ctx context.Context, pred *types.Predicate) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.closed {
		return 0, ErrSessionClosed
	}
	if err := r.s.flush(ctx); err != nil {
		return 0, err
	}
	return r.store.Count(ctx, pred)
}

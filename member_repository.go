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

// MemberRepository is the member view of a session. Entities it returns are
// managed by the session; projections are not.
type MemberRepository struct {
	s     *Session
	store repository.Repository[entity.Member]
}

// Store exposes the underlying generic repository, bound to the session
// transaction. Reads through it bypass the identity map.
func (r *MemberRepository) Store() repository.Repository[entity.Member] {
	return r.store
}

// Save inserts new members; see Session.Save.
func (r *MemberRepository) Save(ctx context.Context, members ...*entity.Member) error {
	entities := make([]entity.Entity, len(members))
	for i, m := range members {
		entities[i] = m
	}
	return r.s.Save(ctx, entities...)
}

// FindByID returns the managed member, querying only when it is not tracked.
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*entity.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.closed {
		return nil, ErrSessionClosed
	}
	if t, ok := r.s.identity[identityKey{"Member", id}]; ok {
		return t.entity.(*entity.Member), nil
	}
	m, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.manage([]*entity.Member{m}, false, false)[0], nil
}

// FindAll returns every member, in identity order unless sorted.
func (r *MemberRepository) FindAll(ctx context.Context, sort types.Sort) ([]*entity.Member, error) {
	return r.find(ctx, nil, sort, false, false)
}

// Find flushes pending changes and returns the managed members matching pred.
func (r *MemberRepository) Find(ctx context.Context, pred *types.Predicate, sort types.Sort) ([]*entity.Member, error) {
	return r.find(ctx, pred, sort, false, false)
}

// Count flushes pending changes and counts the members matching pred.
func (r *MemberRepository) Count(ctx context.Context, pred *types.Predicate) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.beforeQuery(ctx); err != nil {
		return 0, err
	}
	return r.store.Count(ctx, pred)
}

// Page returns one page of matches sorted by the request's sort.
func (r *MemberRepository) Page(ctx context.Context, pred *types.Predicate, req *types.PageRequest) (*types.Page[*entity.Member], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.beforeQuery(ctx); err != nil {
		return nil, err
	}
	page, err := r.store.Page(ctx, pred, req)
	if err != nil {
		return nil, err
	}
	page.Content = r.manage(page.Content, false, false)
	return page, nil
}

// Project scans the selected fields of matches into dest without tracking.
func (r *MemberRepository) Project(ctx context.Context, pred *types.Predicate, sort types.Sort, dest any, fields ...string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.beforeQuery(ctx); err != nil {
		return err
	}
	return r.store.Project(ctx, pred, sort, dest, fields...)
}

// BulkUpdate applies mutations to every match; see Session.BulkUpdate.
func (r *MemberRepository) BulkUpdate(ctx context.Context, pred *types.Predicate, mutations ...types.Mutation) (int, error) {
	return r.s.BulkUpdate(ctx, r.store, pred, mutations...)
}

// FindByUsernameAndAgeGreaterThan returns members named username older than age.
func (r *MemberRepository) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.Find(ctx, types.Where(types.Eq("username", username), types.Gt("age", age)), nil)
}

// FindUser returns members with exactly this username and age.
func (r *MemberRepository) FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.Find(ctx, types.Where(types.Eq("username", username), types.Eq("age", age)), nil)
}

// FindUsernameList returns every username in identity order.
func (r *MemberRepository) FindUsernameList(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.beforeQuery(ctx); err != nil {
		return nil, err
	}
	names := make([]string, 0)
	if err := r.store.Pluck(ctx, "username", nil, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// FindMemberDto projects every member with its team name, empty when the
// member has no team.
func (r *MemberRepository) FindMemberDto(ctx context.Context) ([]entity.MemberDto, error) {
	dtos := make([]entity.MemberDto, 0)
	if err := r.Project(ctx, nil, nil, &dtos, entity.MemberDtoFields...); err != nil {
		return nil, err
	}
	return dtos, nil
}

// FindByNames returns members whose username is in names; none for an empty list.
func (r *MemberRepository) FindByNames(ctx context.Context, names []string) ([]*entity.Member, error) {
	return r.Find(ctx, types.Where(types.In("username", names)), nil)
}

// FindByAge pages the members of exactly this age.
func (r *MemberRepository) FindByAge(ctx context.Context, age int, req *types.PageRequest) (*types.Page[*entity.Member], error) {
	return r.Page(ctx, types.Where(types.Eq("age", age)), req)
}

// FindMemberAllCountBy pages all members.
func (r *MemberRepository) FindMemberAllCountBy(ctx context.Context, req *types.PageRequest) (*types.Page[*entity.Member], error) {
	return r.Page(ctx, nil, req)
}

// BulkAgePlus increments the age of every member at least age years old and
// returns how many were updated.
func (r *MemberRepository) BulkAgePlus(ctx context.Context, age int) (int, error) {
	return r.BulkUpdate(ctx, types.Where(types.Gte("age", age)), types.Increment("age", 1))
}

// FindMemberFetchJoin loads all members with their teams in one query.
func (r *MemberRepository) FindMemberFetchJoin(ctx context.Context) ([]*entity.Member, error) {
	return r.find(ctx, nil, nil, false, true)
}

// FindReadOnlyByUsername returns the first member with username. The entity
// is never snapshotted, so changes to it are not written on flush.
func (r *MemberRepository) FindReadOnlyByUsername(ctx context.Context, username string) (*entity.Member, error) {
	found, err := r.find(ctx, types.Where(types.Eq("username", username)), nil, true, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, types.NewNotFoundError("Member", username)
	}
	return found[0], nil
}

func (r *MemberRepository) find(ctx context.Context, pred *types.Predicate, sort types.Sort, readOnly, fetchTeam bool) ([]*entity.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.beforeQuery(ctx); err != nil {
		return nil, err
	}
	var opts []repository.QueryOption
	if fetchTeam {
		opts = append(opts, repository.WithRelation("Team"))
	}
	found, err := r.store.Find(ctx, pred, sort, opts...)
	if err != nil {
		return nil, err
	}
	return r.manage(found, readOnly, fetchTeam), nil
}

// beforeQuery flushes pending changes so queries observe them.
func (r *MemberRepository) beforeQuery(ctx context.Context) error {
	if r.s.closed {
		return ErrSessionClosed
	}
	return r.s.flush(ctx)
}

// manage swaps loaded members for their managed instances. When the team
// was fetched with the query, managed members that had not resolved it yet
// take the fetched team.
func (r *MemberRepository) manage(found []*entity.Member, readOnly, fetchTeam bool) []*entity.Member {
	out := make([]*entity.Member, len(found))
	for i, m := range found {
		managed := r.s.track(m, readOnly).(*entity.Member)
		if fetchTeam && managed != m && r.s.states[managed.ID] != types.Resolved {
			managed.Team = m.Team
		}
		out[i] = managed
	}
	if fetchTeam {
		r.s.markFetched(out)
	}
	return out
}

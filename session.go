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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/types"
)

// ErrSessionClosed is returned by operations on a committed or rolled back session.
var ErrSessionClosed = errors.New("session is closed")

// Stats counts what a session did since it began.
type Stats struct {
	// Tracked is the number of entities in the identity map.
	Tracked int
	// Resolutions counts members whose team was resolved lazily.
	Resolutions int
	// TeamLoads counts lazy resolutions that had to query the store.
	TeamLoads int
	Flushes   int
	// FlushedRows counts rows written by flushes.
	FlushedRows int
}

// Mutator is any repository able to run a bulk update.
type Mutator interface {
	BulkUpdate(ctx context.Context, pred *types.Predicate, mutations ...types.Mutation) (int, error)
}

type identityKey struct {
	entity string
	id     int64
}

type tracked struct {
	entity entity.Entity
	// snapshot holds column values at load time; nil for read-only entities.
	snapshot map[string]any
}

func (t *tracked) readOnly() bool { return t.snapshot == nil }

// Session is a unit of work over one transaction. Loaded entities are kept in
// an identity map, so a record is represented by one instance per session,
// and are written back on Flush when their columns changed. A session is safe
// to share between goroutines but is meant to be used by one.
type Session struct {
	mu       sync.Mutex
	tx       bun.Tx
	logger   database.Logger
	members  repository.Repository[entity.Member]
	teams    repository.Repository[entity.Team]
	identity map[identityKey]*tracked
	order    []identityKey
	states   map[int64]types.ResolutionState
	stats    Stats
	closed   bool
}

func newSession(tx bun.Tx, logger database.Logger) *Session {
	s := &Session{
		tx:      tx,
		logger:  logger,
		members: repository.NewRepository[entity.Member](tx),
		teams:   repository.NewRepository[entity.Team](tx),
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.identity = make(map[identityKey]*tracked)
	s.order = nil
	s.states = make(map[int64]types.ResolutionState)
}

// Members returns the member repository bound to this session.
func (s *Session) Members() *MemberRepository {
	return &MemberRepository{s: s, store: s.members}
}

// Teams returns the team repository bound to this session.
func (s *Session) Teams() *TeamRepository {
	return &TeamRepository{s: s, store: s.teams}
}

// Save inserts new members and teams and starts tracking them. A member
// pointing at a team that does not exist fails with *types.NotFoundError.
func (s *Session) Save(ctx context.Context, entities ...entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	for _, e := range entities {
		if err := s.save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) save(ctx context.Context, e entity.Entity) error {
	if e.GetID() != 0 {
		return types.NewValidationError("id", fmt.Sprintf("%s already has identity %d", e.EntityName(), e.GetID()))
	}
	switch v := e.(type) {
	case *entity.Team:
		if err := s.teams.Insert(ctx, v); err != nil {
			return err
		}
	case *entity.Member:
		if err := s.syncTeamID(v); err != nil {
			return err
		}
		if v.TeamID != nil {
			if _, err := s.team(ctx, *v.TeamID); err != nil {
				return err
			}
		}
		if err := s.members.Insert(ctx, v); err != nil {
			if database.IsForeignKeyViolation(err) && v.TeamID != nil {
				return types.NewNotFoundError("Team", *v.TeamID)
			}
			return err
		}
		if v.Team != nil || v.TeamID == nil {
			s.states[v.ID] = types.Resolved
		}
	default:
		return types.NewValidationError("entity", fmt.Sprintf("unsupported entity %T", e))
	}
	s.track(e, false)
	s.logger.Debug("Entity saved", "entity", e.EntityName(), "id", e.GetID())
	return nil
}

// syncTeamID reconciles Team and TeamID before a write. An attached Team
// fills an unset TeamID. When both are set and disagree, TeamID was edited
// directly: it wins, the stale Team is dropped and the relation becomes
// unresolved again.
func (s *Session) syncTeamID(m *entity.Member) error {
	if m.Team == nil {
		return nil
	}
	if m.Team.ID == 0 {
		return types.NewValidationError("team_id", "team must be saved before it is assigned")
	}
	switch {
	case m.TeamID == nil || *m.TeamID == 0:
		id := m.Team.ID
		m.TeamID = &id
	case *m.TeamID != m.Team.ID:
		m.Team = nil
		if m.ID != 0 {
			s.states[m.ID] = types.Unresolved
		}
	}
	return nil
}

// AssignTeam points m at the team with teamID, failing with
// *types.NotFoundError when there is no such team. The change is written on
// the next Flush.
func (s *Session) AssignTeam(ctx context.Context, m *entity.Member, teamID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	team, err := s.team(ctx, teamID)
	if err != nil {
		return err
	}
	m.SetTeam(team)
	if m.ID != 0 {
		s.states[m.ID] = types.Resolved
	}
	return nil
}

// team returns the managed team with id, loading it when not tracked.
func (s *Session) team(ctx context.Context, id int64) (*entity.Team, error) {
	if t, ok := s.identity[identityKey{"Team", id}]; ok {
		return t.entity.(*entity.Team), nil
	}
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.track(team, false).(*entity.Team), nil
}

// track adds e to the identity map and returns the managed instance, which
// is the already tracked one when the record was loaded before.
func (s *Session) track(e entity.Entity, readOnly bool) entity.Entity {
	key := identityKey{e.EntityName(), e.GetID()}
	if t, ok := s.identity[key]; ok {
		return t.entity
	}
	t := &tracked{entity: e}
	if !readOnly {
		t.snapshot = snapshot(e)
	}
	s.identity[key] = t
	s.order = append(s.order, key)
	return e
}

func snapshot(e entity.Entity) map[string]any {
	cols := e.Columns()
	snap := make(map[string]any, len(cols))
	for _, c := range cols {
		snap[c], _ = e.FieldValue(c)
	}
	return snap
}

// dirtyColumns lists the columns of t that differ from its snapshot.
func dirtyColumns(t *tracked) []string {
	if t.readOnly() {
		return nil
	}
	var dirty []string
	for _, c := range t.entity.Columns() {
		v, _ := t.entity.FieldValue(c)
		if !reflect.DeepEqual(v, t.snapshot[c]) {
			dirty = append(dirty, c)
		}
	}
	return dirty
}

// IsTracked reports whether e is the managed instance of its record.
func (s *Session) IsTracked(e entity.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.identity[identityKey{e.EntityName(), e.GetID()}]
	return ok && t.entity == e
}

// Flush writes the changed columns of every tracked, writable entity in the
// order the entities became tracked. Read-only entities are never written.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.flush(ctx)
}

func (s *Session) flush(ctx context.Context) error {
	written := 0
	for _, key := range s.order {
		t := s.identity[key]
		if m, ok := t.entity.(*entity.Member); ok && !t.readOnly() {
			if err := s.syncTeamID(m); err != nil {
				return err
			}
		}
		dirty := dirtyColumns(t)
		if len(dirty) == 0 {
			continue
		}
		if err := s.update(ctx, t.entity, dirty); err != nil {
			return err
		}
		t.snapshot = snapshot(t.entity)
		written++
	}
	s.stats.Flushes++
	s.stats.FlushedRows += written
	if written > 0 {
		s.logger.Debug("Session flushed", "rows", written)
	}
	return nil
}

func (s *Session) update(ctx context.Context, e entity.Entity, columns []string) error {
	switch v := e.(type) {
	case *entity.Member:
		err := s.members.Update(ctx, v, columns...)
		if database.IsForeignKeyViolation(err) && v.TeamID != nil {
			return types.NewNotFoundError("Team", *v.TeamID)
		}
		return err
	case *entity.Team:
		return s.teams.Update(ctx, v, columns...)
	}
	return types.NewValidationError("entity", fmt.Sprintf("unsupported entity %T", e))
}

// Clear detaches every entity and forgets resolution state. Pending changes
// that were not flushed are dropped.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	n := len(s.identity)
	s.reset()
	s.logger.Debug("Session cleared", "detached", n)
}

// BulkUpdate flushes pending changes, applies mutations to every record of
// target matching pred, then clears the session so later reads observe the
// new values. It returns the number of matched records.
func (s *Session) BulkUpdate(ctx context.Context, target Mutator, pred *types.Predicate, mutations ...types.Mutation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.bulkUpdate(ctx, target, pred, mutations...)
}

func (s *Session) bulkUpdate(ctx context.Context, target Mutator, pred *types.Predicate, mutations ...types.Mutation) (int, error) {
	if err := s.flush(ctx); err != nil {
		return 0, err
	}
	n, err := target.BulkUpdate(ctx, pred, mutations...)
	if err != nil {
		return 0, err
	}
	s.clear()
	s.logger.Debug("Bulk update applied", "where", pred.String(), "rows", n)
	return n, nil
}

// Commit flushes and commits the transaction.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.flush(ctx); err != nil {
		return err
	}
	s.closed = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Rollback discards the transaction. It is a no-op on a closed session, so
// it can be deferred right after Begin.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.reset()
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback session: %w", err)
	}
	return nil
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Tracked = len(s.identity)
	return st
}

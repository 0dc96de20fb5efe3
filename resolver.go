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
	"errors"

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/types"
)

// Resolve returns the team of m.
//
// With FetchLazy the team is loaded on first access within the current load
// cycle. Later calls return the cached team without a query until Clear. A
// member without a team resolves to nil without a load. A team already in the
// identity map is reused without a query.
//
// FetchEager never queries: the team must have arrived with the query that
// loaded m (FindMemberFetchJoin) or been resolved before, otherwise Resolve
// fails with a *types.ValidationError.
func (s *Session) Resolve(ctx context.Context, m *entity.Member, strategy types.FetchStrategy) (*entity.Team, error) {
	if !strategy.IsValid() {
		return nil, types.NewValidationError("strategy", "unknown fetch strategy")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if strategy == types.FetchEager {
		if s.states[m.ID] != types.Resolved {
			return nil, types.NewValidationError("strategy", "eager resolution needs the team fetched with the query, use FindMemberFetchJoin")
		}
		return m.Team, nil
	}
	return s.resolve(ctx, m)
}

func (s *Session) resolve(ctx context.Context, m *entity.Member) (*entity.Team, error) {
	switch s.states[m.ID] {
	case types.Resolved:
		return m.Team, nil
	case types.Resolving:
		return nil, types.NewValidationError("team", "relation is already being resolved")
	}
	if m.TeamID == nil {
		m.Team = nil
		s.states[m.ID] = types.Resolved
		return nil, nil
	}

	s.states[m.ID] = types.Resolving
	id := *m.TeamID
	team, hit := s.cachedTeam(id)
	if !hit {
		loaded, err := s.teams.FindByID(ctx, id)
		if err != nil {
			s.states[m.ID] = types.Unresolved
			if errors.Is(err, types.ErrNotFound) {
				return nil, &types.RelationNotFoundError{Entity: m.EntityName(), Relation: "team", ID: id}
			}
			return nil, err
		}
		team = s.track(loaded, false).(*entity.Team)
		s.stats.TeamLoads++
	}
	m.Team = team
	s.states[m.ID] = types.Resolved
	s.stats.Resolutions++
	s.logger.Debug("Relation resolved", "member", m.ID, "team", id, "cached", hit)
	return team, nil
}

func (s *Session) cachedTeam(id int64) (*entity.Team, bool) {
	t, ok := s.identity[identityKey{"Team", id}]
	if !ok {
		return nil, false
	}
	return t.entity.(*entity.Team), true
}

// ResolutionState reports whether the team of m has been loaded in this
// load cycle.
func (s *Session) ResolutionState(m *entity.Member) types.ResolutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[m.ID]
}

// markFetched records members whose teams arrived with the query itself.
// Teams are merged into the identity map so members of one team share it.
func (s *Session) markFetched(members []*entity.Member) {
	for _, m := range members {
		if s.states[m.ID] == types.Resolved {
			continue
		}
		switch {
		case m.TeamID == nil || m.Team == nil || m.Team.ID == 0:
			m.Team = nil
		default:
			m.Team = s.track(m.Team, false).(*entity.Team)
		}
		s.states[m.ID] = types.Resolved
	}
}

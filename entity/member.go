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

package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/types"
)

// Member belongs to at most one team.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull" json:"username"`
	Age      int    `bun:"age,notnull" json:"age"`
	// TeamID is the stored reference. A session writes it as is; when it
	// disagrees with Team, TeamID wins and Team is dropped. SetTeam keeps both
	// in step.
	TeamID *int64 `bun:"team_id,nullzero" json:"team_id,omitempty"`
	Team   *Team  `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
}

// NewMember builds an unsaved member; team may be nil.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{Username: username, Age: age}
	m.SetTeam(team)
	return m
}

// SetTeam points the member at team, or detaches it when team is nil.
func (m *Member) SetTeam(team *Team) {
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	id := team.ID
	m.TeamID = &id
}

func (m *Member) EntityName() string { return "Member" }

func (m *Member) GetID() int64 { return m.ID }

func (m *Member) Columns() []string { return []string{"username", "age", "team_id"} }

func (m *Member) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "username":
		return m.Username, true
	case "age":
		return m.Age, true
	case "team_id":
		if m.TeamID == nil {
			return nil, true
		}
		return *m.TeamID, true
	}
	return nil, false
}

// BeforeAppendModel rejects blank usernames and negative ages on writes.
func (m *Member) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if m == nil {
		return nil
	}
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		if strings.TrimSpace(m.Username) == "" {
			return types.NewValidationError("username", "must not be blank")
		}
		if m.Age < 0 {
			return types.NewValidationError("age", fmt.Sprintf("must not be negative, got %d", m.Age))
		}
	}
	return nil
}

func (m *Member) String() string {
	if m.TeamID == nil {
		return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
	}
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d, team_id=%d)", m.ID, m.Username, m.Age, *m.TeamID)
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/types"
)

func TestMemberSetTeam(t *testing.T) {
	team := &Team{ID: 7, Name: "teamA"}
	m := NewMember("member1", 10, team)
	require.NotNil(t, m.TeamID)
	assert.Equal(t, int64(7), *m.TeamID)
	assert.Same(t, team, m.Team)

	v, ok := m.FieldValue("team_id")
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	m.SetTeam(nil)
	assert.Nil(t, m.TeamID)
	v, ok = m.FieldValue("team_id")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = m.FieldValue("team")
	assert.False(t, ok)
	assert.Equal(t, "Member(id=0, username=member1, age=10)", m.String())
}

func TestMemberBeforeAppendModel(t *testing.T) {
	ctx := context.Background()
	insert := (*bun.InsertQuery)(nil)

	assert.NoError(t, NewMember("member1", 0, nil).BeforeAppendModel(ctx, insert))
	assert.ErrorIs(t, NewMember("  ", 10, nil).BeforeAppendModel(ctx, insert), types.ErrValidation)
	assert.ErrorIs(t, NewMember("member1", -1, nil).BeforeAppendModel(ctx, insert), types.ErrValidation)
	assert.NoError(t, (*Member)(nil).BeforeAppendModel(ctx, insert))
	assert.NoError(t, NewMember("", 10, nil).BeforeAppendModel(ctx, (*bun.SelectQuery)(nil)))
}

func TestRegisterOrdersTeamsFirst(t *testing.T) {
	r := database.NewModelRegistry()
	Register(r)
	models := r.Models()
	require.Len(t, models, 2)
	assert.IsType(t, (*Team)(nil), models[0].Instance())
	assert.IsType(t, (*Member)(nil), models[1].Instance())

	fks := ForeignKeys()
	require.Len(t, fks, 1)
	assert.NoError(t, fks[0].Validate())
}

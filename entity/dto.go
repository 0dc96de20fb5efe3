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

// MemberDto is a read-only projection of a member and its team name.
// TeamName is empty for members without a team.
type MemberDto struct {
	ID       int64  `bun:"id" json:"id"`
	Username string `bun:"username" json:"username"`
	TeamName string `bun:"team__name" json:"team_name"`
}

// MemberDtoFields are the projected columns, in MemberDto order.
var MemberDtoFields = []string{"id", "username", "team.name"}

func (d MemberDto) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "username":
		return d.Username, true
	case "team.name":
		return d.TeamName, true
	}
	return nil, false
}

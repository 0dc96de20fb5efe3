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

// Package entity holds the persisted member/team model and its projections.
package entity

import (
	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/database"
)

// Entity is a persisted record tracked by a session.
type Entity interface {
	// EntityName names the record type in errors and logs.
	EntityName() string
	GetID() int64
	// FieldValue returns the value of a persisted column.
	FieldValue(name string) (any, bool)
	// Columns lists the mutable persisted columns compared on flush.
	Columns() []string
}

const (
	teamPriority   = 10
	memberPriority = 20
)

// Register adds the domain tables to a model registry. Teams are created
// before members so the members foreign key can reference them.
func Register(r database.ModelRegistry) {
	r.Register(
		database.NewModelAdapter((*Team)(nil), teamPriority),
		database.NewModelAdapter((*Member)(nil), memberPriority),
	)
}

// ForeignKeys returns the code-defined constraints of the domain model.
func ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{
		{
			Table:           "members",
			Column:          "team_id",
			ReferenceTable:  "teams",
			ReferenceColumn: "id",
			OnDelete:        "SET NULL",
		},
	}
}

var (
	_ Entity                    = (*Member)(nil)
	_ Entity                    = (*Team)(nil)
	_ bun.BeforeAppendModelHook = (*Member)(nil)
)

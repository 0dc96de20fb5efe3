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

package types

import "fmt"

// MutationKind selects how a bulk update changes a column.
type MutationKind int

const (
	// MutateAssign sets the column to Value.
	MutateAssign MutationKind = iota
	// MutateIncrement adds Value to a numeric column.
	MutateIncrement
)

// Mutation is one column change applied by a bulk update.
type Mutation struct {
	Field string
	Kind  MutationKind
	Value any
}

// Increment adds delta to field.
func Increment(field string, delta int) Mutation {
	return Mutation{Field: field, Kind: MutateIncrement, Value: delta}
}

// Assign sets field to v.
func Assign(field string, v any) Mutation {
	return Mutation{Field: field, Kind: MutateAssign, Value: v}
}

func (m Mutation) String() string {
	if m.Kind == MutateIncrement {
		return fmt.Sprintf("%s = %s + %v", m.Field, m.Field, m.Value)
	}
	return fmt.Sprintf("%s = %v", m.Field, m.Value)
}

// Validate checks the field against known and rejects increments of
// non-numeric values.
func (m Mutation) Validate(known func(field string) bool) error {
	if m.Field == "" {
		return NewValidationError(m.Field, "empty mutation field")
	}
	if known != nil && !known(m.Field) {
		return NewValidationError(m.Field, "no such field")
	}
	switch m.Kind {
	case MutateAssign:
	case MutateIncrement:
		if _, ok := toFloat(indirect(m.Value)); !ok {
			return NewValidationError(m.Field, fmt.Sprintf("cannot increment by %v", m.Value))
		}
	default:
		return NewValidationError(m.Field, "unknown mutation kind")
	}
	return nil
}

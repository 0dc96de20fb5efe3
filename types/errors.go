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

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup by identity has no match.
	ErrNotFound = errors.New("roster: entity not found")

	// ErrValidation is returned for malformed predicates, sorts, mutations or page requests.
	ErrValidation = errors.New("roster: invalid request")

	// ErrRelationNotFound is returned when a stored reference points at a missing record.
	ErrRelationNotFound = errors.New("roster: referenced entity not found")
)

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports a bad field reference or argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RelationNotFoundError means a reference that was valid when written no longer
// resolves. Deletes are not exposed, so seeing one indicates store corruption.
type RelationNotFoundError struct {
	Entity   string
	Relation string
	ID       any
}

func (e *RelationNotFoundError) Error() string {
	return fmt.Sprintf("%s.%s references missing record %v", e.Entity, e.Relation, e.ID)
}

func (e *RelationNotFoundError) Is(target error) bool { return target == ErrRelationNotFound }

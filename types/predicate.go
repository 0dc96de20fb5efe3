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
	"fmt"
	"strings"
)

// Fielder exposes named field values so predicates and sorts can be
// evaluated without a database round trip. Names are the column names.
type Fielder interface {
	FieldValue(name string) (any, bool)
}

// Condition is one field/operator/value filter. For OpIn the candidates are
// held in Values, otherwise in Value.
type Condition struct {
	Field  string
	Op     Operator
	Value  any
	Values []any
}

// Eq matches field == v.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Value: v} }

// Gt matches field > v.
func Gt(field string, v any) Condition { return Condition{Field: field, Op: OpGt, Value: v} }

// Gte matches field >= v.
func Gte(field string, v any) Condition { return Condition{Field: field, Op: OpGte, Value: v} }

// Lt matches field < v.
func Lt(field string, v any) Condition { return Condition{Field: field, Op: OpLt, Value: v} }

// In matches when field equals any of values. An empty list matches nothing.
func In[V any](field string, values []V) Condition {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Condition{Field: field, Op: OpIn, Values: vals}
}

func (c Condition) String() string {
	if c.Op == OpIn {
		return fmt.Sprintf("%s IN %v", c.Field, c.Values)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Validate checks the operator and, when known is not nil, the field name.
func (c Condition) Validate(known func(field string) bool) error {
	if strings.TrimSpace(c.Field) == "" {
		return NewValidationError(c.Field, "empty field name")
	}
	if !c.Op.IsValid() {
		return NewValidationError(c.Field, fmt.Sprintf("unsupported operator %d", c.Op))
	}
	if known != nil && !known(c.Field) {
		return NewValidationError(c.Field, "no such field")
	}
	return nil
}

// Matches evaluates the condition against r.
func (c Condition) Matches(r Fielder) (bool, error) {
	actual, ok := r.FieldValue(c.Field)
	if !ok {
		return false, NewValidationError(c.Field, "no such field")
	}
	switch c.Op {
	case OpEq:
		return CompareValues(actual, c.Value) == 0, nil
	case OpGt:
		return CompareValues(actual, c.Value) > 0, nil
	case OpGte:
		return CompareValues(actual, c.Value) >= 0, nil
	case OpLt:
		return CompareValues(actual, c.Value) < 0, nil
	case OpIn:
		for _, v := range c.Values {
			if CompareValues(actual, v) == 0 {
				return true, nil
			}
		}
		return false, nil
	}
	return false, NewValidationError(c.Field, fmt.Sprintf("unsupported operator %d", c.Op))
}

// Predicate is a conjunction of conditions. A nil or empty predicate matches
// every record.
type Predicate struct {
	conds []Condition
}

// Where builds a predicate from the given conditions.
func Where(conds ...Condition) *Predicate {
	p := &Predicate{conds: make([]Condition, 0, len(conds))}
	p.conds = append(p.conds, conds...)
	return p
}

// And returns a new predicate with conds appended.
func (p *Predicate) And(conds ...Condition) *Predicate {
	return Where(append(p.Conditions(), conds...)...)
}

// Conditions returns a copy of the conditions.
func (p *Predicate) Conditions() []Condition {
	if p == nil {
		return nil
	}
	out := make([]Condition, len(p.conds))
	copy(out, p.conds)
	return out
}

func (p *Predicate) IsEmpty() bool { return p == nil || len(p.conds) == 0 }

// Validate validates every condition.
func (p *Predicate) Validate(known func(field string) bool) error {
	for _, c := range p.Conditions() {
		if err := c.Validate(known); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether all conditions hold for r.
func (p *Predicate) Matches(r Fielder) (bool, error) {
	for _, c := range p.Conditions() {
		ok, err := c.Matches(r)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (p *Predicate) String() string {
	if p.IsEmpty() {
		return "TRUE"
	}
	parts := make([]string, len(p.conds))
	for i, c := range p.conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Filter returns the records of items matching p, keeping their order.
func Filter[T Fielder](items []T, p *Predicate) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		ok, err := p.Matches(it)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}

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
	"sort"
	"strings"
)

// Order is one sort key.
type Order struct {
	Field     string
	Direction Direction
}

func (o Order) String() string { return o.Field + " " + o.Direction.Name() }

// Sort is an ordered list of sort keys; earlier keys take precedence.
type Sort []Order

// SortBy sorts by every field in the same direction.
func SortBy(dir Direction, fields ...string) Sort {
	s := make(Sort, 0, len(fields))
	for _, f := range fields {
		s = append(s, Order{Field: f, Direction: dir})
	}
	return s
}

// ParseSort parses expressions of the form "name", "name ASC" or "name DESC".
func ParseSort(exprs ...string) (Sort, error) {
	s := make(Sort, 0, len(exprs))
	for _, expr := range exprs {
		parts := strings.Fields(expr)
		switch len(parts) {
		case 1:
			s = append(s, Order{Field: parts[0], Direction: Asc})
		case 2:
			dir, ok := ParseDirection(parts[1])
			if !ok {
				return nil, NewValidationError(parts[0], "bad sort direction "+parts[1])
			}
			s = append(s, Order{Field: parts[0], Direction: dir})
		default:
			return nil, NewValidationError("", "bad sort expression "+expr)
		}
	}
	return s, nil
}

// And appends the keys of other.
func (s Sort) And(other Sort) Sort {
	out := make(Sort, 0, len(s)+len(other))
	return append(append(out, s...), other...)
}

func (s Sort) IsUnsorted() bool { return len(s) == 0 }

// Strings renders the keys as "field DIR" expressions.
func (s Sort) Strings() []string {
	out := make([]string, len(s))
	for i, o := range s {
		out[i] = o.String()
	}
	return out
}

// Validate checks every key; known may be nil.
func (s Sort) Validate(known func(field string) bool) error {
	for _, o := range s {
		if strings.TrimSpace(o.Field) == "" {
			return NewValidationError(o.Field, "empty sort field")
		}
		if !o.Direction.IsValid() {
			return NewValidationError(o.Field, "bad sort direction")
		}
		if known != nil && !known(o.Field) {
			return NewValidationError(o.Field, "no such field")
		}
	}
	return nil
}

// Compare orders a before b (<0), after b (>0) or as equal (0).
func (s Sort) Compare(a, b Fielder) int {
	for _, o := range s {
		av, _ := a.FieldValue(o.Field)
		bv, _ := b.FieldValue(o.Field)
		c := CompareValues(av, bv)
		if c == 0 {
			continue
		}
		if o.Direction == Desc {
			return -c
		}
		return c
	}
	return 0
}

// SortStable sorts items in place; ties keep their original order. Sort
// fields are checked with known. A nil known checks them against every item,
// so an empty input then only gets its keys checked for syntax.
func SortStable[T Fielder](items []T, s Sort, known func(field string) bool) error {
	if known == nil {
		known = func(f string) bool {
			for _, it := range items {
				if _, ok := it.FieldValue(f); !ok {
					return false
				}
			}
			return true
		}
	}
	if err := s.Validate(known); err != nil {
		return err
	}
	if s.IsUnsorted() {
		return nil
	}
	sort.SliceStable(items, func(i, j int) bool {
		return s.Compare(items[i], items[j]) < 0
	})
	return nil
}

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

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

type enumEntry struct {
	name string
	desc string
}

func lookupEnum(table []enumEntry, n int) (enumEntry, bool) {
	if n < 0 || n >= len(table) {
		return enumEntry{IllegalName, IllegalDesc}, false
	}
	return table[n], true
}

func parseEnum(table []enumEntry, s string) int {
	s = strings.TrimSpace(s)
	for i, e := range table {
		if strings.EqualFold(e.name, s) {
			return i
		}
	}
	return IllegalValue
}

// Direction is the ordering direction of a sort key.
type Direction int

const (
	Asc Direction = iota
	Desc
)

var directionTable = []enumEntry{
	{"ASC", "ascending"},
	{"DESC", "descending"},
}

// ParseDirection parses "asc"/"desc" case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	n := parseEnum(directionTable, s)
	return Direction(n), n != IllegalValue
}

func (d Direction) IsValid() bool  { _, ok := lookupEnum(directionTable, int(d)); return ok }
func (d Direction) Number() int    { return int(d) }
func (d Direction) String() string { return d.Name() }
func (d Direction) Name() string   { e, _ := lookupEnum(directionTable, int(d)); return e.name }
func (d Direction) Desc() string   { e, _ := lookupEnum(directionTable, int(d)); return e.desc }

// Operator is the comparison used by a Condition.
type Operator int

const (
	OpEq Operator = iota
	OpGt
	OpGte
	OpLt
	OpIn
)

var operatorTable = []enumEntry{
	{"=", "equals"},
	{">", "greater than"},
	{">=", "greater than or equal"},
	{"<", "less than"},
	{"IN", "member of"},
}

func (o Operator) IsValid() bool  { _, ok := lookupEnum(operatorTable, int(o)); return ok }
func (o Operator) Number() int    { return int(o) }
func (o Operator) String() string { return o.Name() }
func (o Operator) Name() string   { e, _ := lookupEnum(operatorTable, int(o)); return e.name }
func (o Operator) Desc() string   { e, _ := lookupEnum(operatorTable, int(o)); return e.desc }

// FetchStrategy controls when a relation reference is loaded.
type FetchStrategy int

const (
	// FetchLazy loads the relation on the first explicit resolve.
	FetchLazy FetchStrategy = iota
	// FetchEager loads the relation together with the owning query.
	FetchEager
)

var fetchStrategyTable = []enumEntry{
	{"lazy", "resolve on first access"},
	{"eager", "resolve with the initiating query"},
}

func (f FetchStrategy) IsValid() bool  { _, ok := lookupEnum(fetchStrategyTable, int(f)); return ok }
func (f FetchStrategy) Number() int    { return int(f) }
func (f FetchStrategy) String() string { return f.Name() }
func (f FetchStrategy) Name() string   { e, _ := lookupEnum(fetchStrategyTable, int(f)); return e.name }
func (f FetchStrategy) Desc() string   { e, _ := lookupEnum(fetchStrategyTable, int(f)); return e.desc }

// ResolutionState tracks the relation of a loaded entity within one session.
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	Resolving
	Resolved
)

var resolutionStateTable = []enumEntry{
	{"unresolved", "relation not loaded"},
	{"resolving", "relation load in progress"},
	{"resolved", "relation loaded"},
}

func (r ResolutionState) IsValid() bool {
	_, ok := lookupEnum(resolutionStateTable, int(r))
	return ok
}
func (r ResolutionState) Number() int    { return int(r) }
func (r ResolutionState) String() string { return r.Name() }
func (r ResolutionState) Name() string {
	e, _ := lookupEnum(resolutionStateTable, int(r))
	return e.name
}
func (r ResolutionState) Desc() string {
	e, _ := lookupEnum(resolutionStateTable, int(r))
	return e.desc
}

var (
	_ BaseEnum = Direction(0)
	_ BaseEnum = Operator(0)
	_ BaseEnum = FetchStrategy(0)
	_ BaseEnum = ResolutionState(0)
)

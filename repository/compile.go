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

package repository

import (
	"reflect"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/types"
)

type clause struct {
	query string
	args  []any
}

var comparisonSQL = map[types.Operator]string{
	types.OpEq:  "=",
	types.OpGt:  ">",
	types.OpGte: ">=",
	types.OpLt:  "<",
}

// compileConditions turns a validated predicate into WHERE clauses. Columns
// are qualified with the table alias for SELECTs only; UPDATE and DELETE use
// bare column names since not every dialect aliases their target table.
func compileConditions(pred *types.Predicate, qualified bool) []clause {
	prefix := ""
	if qualified {
		prefix = "?TableAlias."
	}
	conds := pred.Conditions()
	out := make([]clause, 0, len(conds))
	for _, c := range conds {
		col := bun.Ident(c.Field)
		switch c.Op {
		case types.OpIn:
			if len(c.Values) == 0 {
				out = append(out, clause{query: "1 = 0"})
				continue
			}
			out = append(out, clause{query: prefix + "? IN (?)", args: []any{col, bun.In(c.Values)}})
		case types.OpEq:
			if isNil(c.Value) {
				out = append(out, clause{query: prefix + "? IS NULL", args: []any{col}})
				continue
			}
			fallthrough
		default:
			out = append(out, clause{
				query: prefix + "? " + comparisonSQL[c.Op] + " ?",
				args:  []any{col, c.Value},
			})
		}
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

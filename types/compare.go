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
	"reflect"
	"strings"
)

// CompareValues returns -1, 0 or 1. Numbers compare numerically, strings
// lexically, nil sorts first; anything else falls back to its printed form.
func CompareValues(a, b any) int {
	a, b = indirect(a), indirect(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := compareIntegers(a, b); ok {
		return c
	}
	if f1, ok1 := toFloat(a); ok1 {
		if f2, ok2 := toFloat(b); ok2 {
			switch {
			case f1 < f2:
				return -1
			case f1 > f2:
				return 1
			}
			return 0
		}
	}
	if s1, ok := a.(string); ok {
		if s2, ok := b.(string); ok {
			return strings.Compare(s1, s2)
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// compareIntegers compares two integer values exactly, signed and unsigned
// alike. ok is false unless both are integers.
func compareIntegers(a, b any) (int, bool) {
	ai, au, aSigned, ok := toInteger(a)
	if !ok {
		return 0, false
	}
	bi, bu, bSigned, ok := toInteger(b)
	if !ok {
		return 0, false
	}
	switch {
	case aSigned && bSigned:
		return cmpOrdered(ai, bi), true
	case !aSigned && !bSigned:
		return cmpOrdered(au, bu), true
	case aSigned:
		if ai < 0 {
			return -1, true
		}
		return cmpOrdered(uint64(ai), bu), true
	default:
		if bi < 0 {
			return 1, true
		}
		return cmpOrdered(au, uint64(bi)), true
	}
}

func cmpOrdered[T int64 | uint64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toInteger(v any) (i int64, u uint64, signed bool, ok bool) {
	switch n := v.(type) {
	case int:
		return int64(n), 0, true, true
	case int8:
		return int64(n), 0, true, true
	case int16:
		return int64(n), 0, true, true
	case int32:
		return int64(n), 0, true, true
	case int64:
		return n, 0, true, true
	case uint:
		return 0, uint64(n), false, true
	case uint8:
		return 0, uint64(n), false, true
	case uint16:
		return 0, uint64(n), false, true
	case uint32:
		return 0, uint64(n), false, true
	case uint64:
		return 0, n, false, true
	}
	return 0, 0, false, false
}

func indirect(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

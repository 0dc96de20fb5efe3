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

package types_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/types"
)

type row struct {
	id   int64
	name string
	age  int
}

func (r row) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return r.id, true
	case "username":
		return r.name, true
	case "age":
		return r.age, true
	}
	return nil, false
}

func rows(ages ...int) []row {
	out := make([]row, len(ages))
	for i, a := range ages {
		out[i] = row{id: int64(i + 1), name: fmt.Sprintf("member%d", i+1), age: a}
	}
	return out
}

func TestPaginateDescendingUsername(t *testing.T) {
	matches, err := types.Filter(rows(10, 10, 10, 10, 10), types.Where(types.Eq("age", 10)))
	require.NoError(t, err)

	req := types.NewPageRequest(0, 3, types.SortBy(types.Desc, "username"))
	page, err := types.Paginate(matches, req, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(page.Content))
	for _, r := range page.Content {
		names = append(names, r.name)
	}
	assert.Equal(t, []string{"member5", "member4", "member3"}, names)
	assert.Equal(t, 5, page.TotalElements)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 2, page.TotalPages())
	assert.True(t, page.IsFirst())
	assert.True(t, page.HasNext())
	assert.False(t, page.IsLast())

	last, err := types.Paginate(matches, req.Next(), nil)
	require.NoError(t, err)
	assert.Len(t, last.Content, 2)
	assert.False(t, last.HasNext())
	assert.True(t, last.IsLast())
	assert.True(t, last.HasPrevious())
}

func TestPaginateCoversEveryElement(t *testing.T) {
	for n := 0; n <= 11; n++ {
		all := rows(make([]int, n)...)
		for size := 1; size <= 5; size++ {
			first, err := types.Paginate(all, types.NewDefaultPageRequest(0, size), nil)
			require.NoError(t, err)
			assert.Equal(t, (n+size-1)/size, first.TotalPages(), "n=%d size=%d", n, size)

			seen := 0
			for i := 0; i < first.TotalPages(); i++ {
				p, err := types.Paginate(all, types.NewDefaultPageRequest(i, size), nil)
				require.NoError(t, err)
				seen += p.NumberOfElements()
			}
			assert.Equal(t, n, seen, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginateEmptyAndOutOfRange(t *testing.T) {
	empty, err := types.Paginate([]row{}, types.NewDefaultPageRequest(0, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalPages())
	assert.False(t, empty.HasNext())
	assert.NotNil(t, empty.Content)

	beyond, err := types.Paginate(rows(1, 2, 3), types.NewDefaultPageRequest(7, 2), nil)
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.Equal(t, 3, beyond.TotalElements)
}

func TestPaginateHugeIndexIsEmpty(t *testing.T) {
	for _, idx := range []int{math.MaxInt / 2, math.MaxInt / 3, math.MaxInt} {
		page, err := types.Paginate(rows(1, 2), types.NewDefaultPageRequest(idx, 3), nil)
		require.NoError(t, err)
		assert.Empty(t, page.Content, "index %d", idx)
		assert.Equal(t, 2, page.TotalElements)
	}

	page, err := types.Paginate(rows(1, 2, 3), types.NewDefaultPageRequest(0, math.MaxInt), nil)
	require.NoError(t, err)
	assert.Len(t, page.Content, 3)
	assert.Equal(t, 1, page.TotalPages())
}

func TestPageRequestBeyond(t *testing.T) {
	assert.True(t, types.NewDefaultPageRequest(0, 3).Beyond(0))
	assert.False(t, types.NewDefaultPageRequest(1, 3).Beyond(4))
	assert.True(t, types.NewDefaultPageRequest(2, 3).Beyond(6))
	assert.True(t, types.NewDefaultPageRequest(math.MaxInt/2, 3).Beyond(5))
}

func TestSortUnknownFieldOnEmptyInput(t *testing.T) {
	known := func(f string) bool { _, ok := row{}.FieldValue(f); return ok }
	err := types.SortStable([]row{}, types.SortBy(types.Asc, "nickname"), known)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = types.Paginate([]row{}, types.NewPageRequest(0, 2, types.SortBy(types.Asc, "nickname")), known)
	assert.ErrorIs(t, err, types.ErrValidation)

	require.NoError(t, types.SortStable([]row{}, types.SortBy(types.Asc, "age"), known))
}

func TestPaginateRejectsBadRequests(t *testing.T) {
	_, err := types.Paginate(rows(1), types.NewDefaultPageRequest(0, 0), nil)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = types.Paginate(rows(1), types.NewDefaultPageRequest(-1, 2), nil)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = types.Paginate(rows(1), types.NewPageRequest(0, 2, types.SortBy(types.Asc, "nickname")), nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSortStableKeepsInsertionOrderOnTies(t *testing.T) {
	items := rows(30, 20, 30, 20, 30)
	require.NoError(t, types.SortStable(items, types.SortBy(types.Asc, "age"), nil))

	ids := make([]int64, len(items))
	for i, r := range items {
		ids[i] = r.id
	}
	assert.Equal(t, []int64{2, 4, 1, 3, 5}, ids)
}

func TestSortMultiKey(t *testing.T) {
	items := []row{{1, "b", 20}, {2, "a", 20}, {3, "c", 10}}
	s := types.SortBy(types.Desc, "age").And(types.SortBy(types.Asc, "username"))
	require.NoError(t, types.SortStable(items, s, nil))
	assert.Equal(t, []int64{2, 1, 3}, []int64{items[0].id, items[1].id, items[2].id})
}

func TestMapPageKeepsMetadata(t *testing.T) {
	page, err := types.Paginate(rows(1, 2, 3), types.NewDefaultPageRequest(1, 2), nil)
	require.NoError(t, err)

	names := types.MapPage(page, func(r row) string { return r.name })
	assert.Equal(t, []string{"member3"}, names.Content)
	assert.Equal(t, page.TotalElements, names.TotalElements)
	assert.Equal(t, 1, names.Number)
}

func TestParseSort(t *testing.T) {
	s, err := types.ParseSort("username DESC", "age", "id asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"username DESC", "age ASC", "id ASC"}, s.Strings())

	_, err = types.ParseSort("username sideways")
	assert.ErrorIs(t, err, types.ErrValidation)
}

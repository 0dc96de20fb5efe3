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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/types"
)

func TestPredicateMatchCountEqualsFilter(t *testing.T) {
	all := rows(10, 19, 20, 21, 40)
	cases := []*types.Predicate{
		nil,
		types.Where(),
		types.Where(types.Gte("age", 20)),
		types.Where(types.Gt("age", 15), types.Lt("age", 30)),
		types.Where(types.In("username", []string{"member1", "member4", "nobody"})),
		types.Where(types.Eq("username", "member2"), types.Eq("age", 19)),
	}
	for _, p := range cases {
		matched, err := types.Filter(all, p)
		require.NoError(t, err)

		count := 0
		for _, r := range all {
			ok, err := p.Matches(r)
			require.NoError(t, err)
			if ok {
				count++
			}
		}
		assert.Equal(t, count, len(matched), p.String())
	}
}

func TestPredicateOperators(t *testing.T) {
	r := row{id: 1, name: "AAA", age: 20}

	for _, tc := range []struct {
		cond types.Condition
		want bool
	}{
		{types.Eq("username", "AAA"), true},
		{types.Eq("age", int64(20)), true},
		{types.Gt("age", 15), true},
		{types.Gt("age", 20), false},
		{types.Gte("age", 20), true},
		{types.Lt("age", 20), false},
		{types.In("age", []int{1, 20}), true},
		{types.In[int]("age", nil), false},
	} {
		ok, err := tc.cond.Matches(r)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.cond.String())
	}
}

func TestPredicateUnknownField(t *testing.T) {
	p := types.Where(types.Eq("nickname", "x"))
	_, err := p.Matches(row{})
	assert.ErrorIs(t, err, types.ErrValidation)

	known := func(f string) bool { return f == "age" }
	err = p.Validate(known)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nickname", verr.Field)
}

func TestPredicateAndDoesNotAlias(t *testing.T) {
	base := types.Where(types.Eq("age", 10))
	narrowed := base.And(types.Eq("username", "member1"))
	assert.Len(t, base.Conditions(), 1)
	assert.Len(t, narrowed.Conditions(), 2)
}

func TestCompareValues(t *testing.T) {
	n := int64(5)
	assert.Equal(t, 0, types.CompareValues(5, int64(5)))
	assert.Equal(t, 0, types.CompareValues(&n, 5.0))
	assert.Equal(t, -1, types.CompareValues(nil, 1))
	assert.Equal(t, 1, types.CompareValues("b", "a"))
	assert.Equal(t, -1, types.CompareValues(9, 10))
	var nilPtr *int64
	assert.Equal(t, 0, types.CompareValues(nilPtr, nil))

	big := int64(1) << 60
	assert.Equal(t, -1, types.CompareValues(big, big+1))
	assert.Equal(t, 1, types.CompareValues(uint64(big+1), big))
	assert.Equal(t, -1, types.CompareValues(-1, uint64(0)))
	assert.Equal(t, 1, types.CompareValues(uint64(math.MaxUint64), int64(math.MaxInt64)))

	ok, err := types.Where(types.In("id", []int64{big + 1})).Matches(row{id: big})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = types.Where(types.Eq("id", big)).Matches(row{id: big})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutationValidate(t *testing.T) {
	assert.NoError(t, types.Increment("age", 1).Validate(nil))
	assert.ErrorIs(t, types.Mutation{Field: "age", Kind: types.MutateIncrement, Value: "x"}.Validate(nil), types.ErrValidation)
	assert.ErrorIs(t, types.Assign("", 1).Validate(nil), types.ErrValidation)
}

func TestEnums(t *testing.T) {
	d, ok := types.ParseDirection("desc")
	require.True(t, ok)
	assert.Equal(t, types.Desc, d)
	assert.Equal(t, "DESC", d.String())
	assert.False(t, types.Direction(9).IsValid())
	assert.Equal(t, types.IllegalName, types.Direction(9).Name())
	assert.Equal(t, "resolved", types.Resolved.String())
	assert.Equal(t, "eager", types.FetchEager.Name())
}

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

package database_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/tomoncle/roster/database"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind database.SQLError
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, database.DuplicateKeyErr},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, true, database.ForeignKeyViolationErr},
		{"mysql wrapped", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1146}), true, database.NoTableErr},
		{"postgres foreign key", &pq.Error{Code: "23503"}, true, database.ForeignKeyViolationErr},
		{"postgres unique", &pq.Error{Code: "23505"}, true, database.DuplicateKeyErr},
		{"sqlite foreign key", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true, database.ForeignKeyViolationErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: teams.name"), true, database.DuplicateKeyErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: members (1)"), true, database.NoTableErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, database.NoRowsErr},
		{"unrelated", errors.New("boom"), false, database.UnknownErr},
		{"nil", nil, false, database.UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := database.IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind, kind.String())
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, database.IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, database.IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, database.IsForeignKeyViolation(nil))
	assert.Equal(t, "foreign_key_violation", database.ForeignKeyViolationErr.String())
	assert.Equal(t, "unknown", database.SQLError(99).String())
}

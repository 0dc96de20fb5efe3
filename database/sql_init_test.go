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

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(`
-- teams
INSERT INTO teams (name)
  VALUES ('teamA');

INSERT INTO teams (name) VALUES ('teamB');
UPDATE teams SET name = name`)
	assert.Equal(t, []string{
		"INSERT INTO teams (name) VALUES ('teamA');",
		"INSERT INTO teams (name) VALUES ('teamB');",
		"UPDATE teams SET name = name",
	}, stmts)
	assert.Empty(t, splitSQLStatements("-- only a comment\n\n"))
}

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 1, parseFileOrder("001_teams.sql"))
	assert.Equal(t, 20, parseFileOrder("20_members.sql"))
	assert.Equal(t, 999, parseFileOrder("members.sql"))
}

func TestGetSQLFilesOrdering(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("SELECT 1;"), 0o644))
	}
	write("common/010_b.sql")
	write("common/002_a.sql")
	write("common/readme.txt")
	write("environments/test/001_env.sql")
	write("environments/prod/001_prod.sql")

	m := NewSQLInitManager(nil, "test", nil)
	m.SetSQLRootPath(root)
	files, err := m.GetSQLFiles()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"002_a.sql", "010_b.sql", "001_env.sql"}, names)
}

func TestReplaceEnvVariables(t *testing.T) {
	t.Setenv("ROSTER_SEED_TEAM", "teamEnv")
	m := NewSQLInitManager(nil, "test", nil)

	out, err := m.replaceEnvVariables("INSERT INTO teams (name) VALUES ('{{.ROSTER_SEED_TEAM}}-{{.ENVIRONMENT}}');")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO teams (name) VALUES ('teamEnv-test');", out)

	plain := "SELECT 1;"
	out, err = m.replaceEnvVariables(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

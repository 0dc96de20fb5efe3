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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
)

func connect(t *testing.T, cfg *database.Config) database.AbstractDatabaseManager {
	t.Helper()
	m, err := database.NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	entity.Register(m.Registry())
	m.ForeignKeys().Add(entity.ForeignKeys()...)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func appliedVersions(t *testing.T, m database.AbstractDatabaseManager) []string {
	t.Helper()
	mm := database.NewMigrationManager(m.GetDB(), m.Config(), m.Registry(), m.ForeignKeys(), nil)
	applied, err := mm.GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	versions := make([]string, 0, len(applied))
	for _, a := range applied {
		versions = append(versions, a.Version)
	}
	return versions
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := connect(t, database.MemoryConfig())

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx))
	assert.Equal(t, []string{"001"}, appliedVersions(t, m))

	n, err := m.GetDB().NewSelect().Model((*entity.Member)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForeignKeyIsEnforced(t *testing.T) {
	ctx := context.Background()
	m := connect(t, database.MemoryConfig())
	require.NoError(t, m.RunMigrations(ctx))

	missing := int64(99)
	_, err := m.GetDB().NewInsert().Model(&entity.Member{Username: "member1", Age: 10, TeamID: &missing}).Exec(ctx)
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err), err.Error())
}

func TestForeignKeyCanBeDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := database.MemoryConfig()
	cfg.Migrate.EnableForeignKey = false
	m := connect(t, cfg)
	require.NoError(t, m.RunMigrations(ctx))

	missing := int64(99)
	_, err := m.GetDB().NewInsert().Model(&entity.Member{Username: "member1", Age: 10, TeamID: &missing}).Exec(ctx)
	require.NoError(t, err)
}

func TestSeedOnMigration(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("common/001_teams.sql", `
-- seed teams
INSERT INTO teams (name) VALUES ('teamA');
INSERT INTO teams (name) VALUES ('{{.ROSTER_SEED_TEAM}}');
`)
	write("environments/test/001_members.sql", `
INSERT INTO members (username, age, team_id) VALUES ('member1', 10, 1);
INSERT INTO members (username, age, team_id) VALUES ('member2', 20, 2);
`)
	t.Setenv("ROSTER_SEED_TEAM", "teamB")

	cfg := database.MemoryConfig()
	cfg.Seed = database.SeedConfig{AutoSeedOnMigration: true, Filepath: root, Environment: "test"}
	m := connect(t, cfg)
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx))
	assert.Equal(t, []string{"001", "002"}, appliedVersions(t, m))

	var names []string
	require.NoError(t, m.GetDB().NewSelect().Model((*entity.Team)(nil)).Column("name").Order("id").Scan(ctx, &names))
	assert.Equal(t, []string{"teamA", "teamB"}, names)

	n, err := m.GetDB().NewSelect().Model((*entity.Member)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFailedSeedRollsBackMigration(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := filepath.Join(root, "common", "001_bad.sql")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("INSERT INTO nowhere (x) VALUES (1);"), 0o644))

	cfg := database.MemoryConfig()
	cfg.Seed = database.SeedConfig{AutoSeedOnMigration: true, Filepath: root, Environment: "test"}
	m := connect(t, cfg)
	require.Error(t, m.RunMigrations(ctx))
	assert.Equal(t, []string{"001"}, appliedVersions(t, m))
}

func TestHealthAndHooks(t *testing.T) {
	ctx := context.Background()
	m := connect(t, database.MemoryConfig())

	counter := database.NewQueryCounter()
	var buf bytes.Buffer
	m.AddQueryHook(counter)
	m.AddQueryHook(database.NewQueryHook("ROSTER_TEST_UNSET_SQL_LOG", true, true, &buf))

	status := m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	var one int
	require.NoError(t, m.GetDB().NewSelect().ColumnExpr("1").Scan(ctx, &one))
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, counter.Count("select"))
	assert.Equal(t, 1, counter.Total())
	assert.Contains(t, buf.String(), "SELECT 1")

	counter.Reset()
	assert.Zero(t, counter.Total())

	require.NoError(t, m.Disconnect())
	assert.False(t, m.HealthCheck(ctx).Healthy)
	assert.Error(t, m.Ping(ctx))
}

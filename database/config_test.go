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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/database"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := database.LoadConfig("")
	require.NoError(t, err)

	def := database.DefaultConfig()
	assert.Equal(t, def.Connection.Type, cfg.Connection.Type)
	assert.Equal(t, def.Connection.DBName, cfg.Connection.DBName)
	assert.Equal(t, def.Connection.SlowQueryTime, cfg.Connection.SlowQueryTime)
	assert.True(t, cfg.Migrate.EnableMigrateOnStartup)
	assert.True(t, cfg.Migrate.EnableForeignKey)
	assert.Equal(t, "dev", cfg.Seed.Environment)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  type: sqlite
  dbname: from-file
  in_memory: true
  slow_query_time: 500ms
migrate:
  enable_foreign_key: false
seed:
  environment: test
log_level: debug
`), 0o644))
	t.Setenv("ROSTER_CONNECTION_DBNAME", "from-env")

	cfg, err := database.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Connection.Type)
	assert.Equal(t, "from-env", cfg.Connection.DBName)
	assert.True(t, cfg.Connection.InMemory)
	assert.Equal(t, 500*time.Millisecond, cfg.Connection.SlowQueryTime)
	assert.False(t, cfg.Migrate.EnableForeignKey)
	assert.True(t, cfg.Migrate.EnableMigrateOnStartup)
	assert.Equal(t, "test", cfg.Seed.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := database.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestMemoryConfigIsUnique(t *testing.T) {
	a, b := database.MemoryConfig(), database.MemoryConfig()
	assert.True(t, a.Connection.InMemory)
	assert.NotEqual(t, a.Connection.DBName, b.Connection.DBName)
}

func TestFactoryRejectsUnsupportedType(t *testing.T) {
	cfg := database.MemoryConfig()
	cfg.Connection.Type = "oracle"
	_, err := database.NewDatabaseFactory().CreateFromConfig(cfg)
	require.Error(t, err)

	_, err = database.NewDatabaseFactory().CreateFromConfig(nil)
	require.Error(t, err)
}

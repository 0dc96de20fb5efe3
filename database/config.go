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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, running migrations and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetStats() *DBStats
	RunMigrations(ctx context.Context) error
	Registry() ModelRegistry
	ForeignKeys() *ForeignKeyManager
	AddQueryHook(h bun.QueryHook)
	Config() *Config
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type            string        `mapstructure:"type" json:"type"` // postgres, mysql, sqlite
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	Username        string        `mapstructure:"username" json:"username"`
	Password        string        `mapstructure:"password" json:"password"`
	DBName          string        `mapstructure:"dbname" json:"dbname"`
	SSLMode         string        `mapstructure:"sslmode" json:"sslmode"`
	InMemory        bool          `mapstructure:"in_memory" json:"in_memory"` // sqlite only
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	EnableQueryLog  bool          `mapstructure:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime   time.Duration `mapstructure:"slow_query_time" json:"slow_query_time"`
}

// MigrateConfig controls table bootstrap on startup.
type MigrateConfig struct {
	EnableMigrateOnStartup bool   `mapstructure:"enable_migrate_on_startup" json:"enable_migrate_on_startup"`
	EnableForeignKey       bool   `mapstructure:"enable_foreign_key" json:"enable_foreign_key"`
	ForeignKeyFile         string `mapstructure:"foreign_key_file" json:"foreign_key_file"`
}

// SeedConfig controls SQL seeding and environment selection.
type SeedConfig struct {
	AutoSeedOnMigration bool   `mapstructure:"auto_seed_on_migration" json:"auto_seed_on_migration"`
	Filepath            string `mapstructure:"filepath" json:"filepath"`
	Environment         string `mapstructure:"environment" json:"environment"`
}

// Config aggregates connection, migration and seeding settings.
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection" json:"connection"`
	Migrate    MigrateConfig    `mapstructure:"migrate" json:"migrate"`
	Seed       SeedConfig       `mapstructure:"seed" json:"seed"`
	LogLevel   string           `mapstructure:"log_level" json:"log_level"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            "sqlite",
		DBName:          "roster",
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns a file-backed SQLite configuration that creates its
// tables and foreign keys on startup.
func DefaultConfig() *Config {
	return &Config{
		Connection: *DefaultConnectionConfig(),
		Migrate: MigrateConfig{
			EnableMigrateOnStartup: true,
			EnableForeignKey:       true,
		},
		Seed: SeedConfig{
			Filepath:    "configs/sql",
			Environment: "dev",
		},
		LogLevel: "info",
	}
}

// MemoryConfig returns DefaultConfig pointed at a private in-memory SQLite
// database with a unique name.
func MemoryConfig() *Config {
	cfg := DefaultConfig()
	cfg.Connection.InMemory = true
	cfg.Connection.DBName = "roster-" + uuid.NewString()
	return cfg
}

// LoadConfig reads path (YAML, JSON or TOML; optional) on top of DefaultConfig.
// Every key can be overridden from the environment with the ROSTER_ prefix,
// e.g. ROSTER_CONNECTION_DBNAME or ROSTER_MIGRATE_ENABLE_FOREIGN_KEY.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	c := d.Connection
	for k, val := range map[string]interface{}{
		"connection.type":               c.Type,
		"connection.host":               c.Host,
		"connection.port":               c.Port,
		"connection.username":           c.Username,
		"connection.password":           c.Password,
		"connection.dbname":             c.DBName,
		"connection.sslmode":            c.SSLMode,
		"connection.in_memory":          c.InMemory,
		"connection.max_idle_conns":     c.MaxIdleConns,
		"connection.max_open_conns":     c.MaxOpenConns,
		"connection.conn_max_lifetime":  c.ConnMaxLifetime,
		"connection.conn_max_idle_time": c.ConnMaxIdleTime,
		"connection.connect_timeout":    c.ConnectTimeout,
		"connection.read_timeout":       c.ReadTimeout,
		"connection.write_timeout":      c.WriteTimeout,
		"connection.enable_query_log":   c.EnableQueryLog,
		"connection.slow_query_time":    c.SlowQueryTime,

		"migrate.enable_migrate_on_startup": d.Migrate.EnableMigrateOnStartup,
		"migrate.enable_foreign_key":        d.Migrate.EnableForeignKey,
		"migrate.foreign_key_file":          d.Migrate.ForeignKeyFile,

		"seed.auto_seed_on_migration": d.Seed.AutoSeedOnMigration,
		"seed.filepath":               d.Seed.Filepath,
		"seed.environment":            d.Seed.Environment,

		"log_level": d.LogLevel,
	} {
		v.SetDefault(k, val)
	}
}

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
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/utils"
)

// MigrationManager creates registered tables and seeds data, recording each
// applied step in roster_migrations so it runs once per database.
type MigrationManager struct {
	db        *bun.DB
	logger    Logger
	config    *Config
	registry  ModelRegistry
	fkManager *ForeignKeyManager
}

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:roster_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager builds a manager over db for the registered models.
func NewMigrationManager(db *bun.DB, cfg *Config, registry ModelRegistry, fkManager *ForeignKeyManager, logger Logger) *MigrationManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}
	if fkManager == nil {
		fkManager = NewForeignKeyManager(logger)
	}
	if registry == nil {
		registry = NewModelRegistry()
	}
	return &MigrationManager{db: db, logger: logger, config: cfg, registry: registry, fkManager: fkManager}
}

// RunMigrations creates the tracking table if needed and executes all pending
// migrations in ascending version order. Statement logging is muted unless
// ROSTER_SQL_MIGRATION is true.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	start := time.Now()
	if !utils.EnvDefaultBool("ROSTER_SQL_MIGRATION", false) {
		EnableQuerySilent(true)
		defer EnableQuerySilent(false)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	if mm.config.Migrate.ForeignKeyFile != "" {
		if err := mm.fkManager.LoadFile(mm.config.Migrate.ForeignKeyFile); err != nil {
			return err
		}
	}
	if errs := mm.fkManager.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			mm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}

	migrations := mm.getAllMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed", "count", len(migrations), "elapsed", utils.Since(start))
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create registered tables with their foreign keys",
			Up:          mm.createBaseTables,
		},
	}
	if mm.config.Seed.AutoSeedOnMigration {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "seed_initial_data",
			Description: "Seed initial data from SQL files",
			Up:          mm.seedInitialData,
		})
	}
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.registry.Instances() {
		table := tableName(db, model)
		q := db.NewCreateTable().Model(model).IfNotExists()
		if mm.config.Migrate.EnableForeignKey {
			for _, fk := range mm.fkManager.GetConstraintsByTable(table) {
				q = fk.Apply(q)
				mm.logger.Debug("Attaching foreign key", "table", table, "constraint", fk.GenerateConstraintName(), "clause", fk.Clause())
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	sqlManager := NewSQLInitManager(db, mm.config.Seed.Environment, mm.logger)
	if mm.config.Seed.Filepath != "" {
		sqlManager.SetSQLRootPath(mm.config.Seed.Filepath)
	}
	mm.logger.Info("Starting data initialization using SQL files", "environment", mm.config.Seed.Environment)
	if err := sqlManager.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

func tableName(db bun.IDB, model interface{}) string {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return db.Dialect().Tables().Get(t).Name
}

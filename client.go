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

// Package roster is a unit-of-work layer over Bun for members and teams:
// sessions with an identity map, dirty checking, lazy or fetch-joined team
// resolution, derived finders, paging and bulk updates.
package roster

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
)

// Client owns a database connection and opens sessions on it.
type Client struct {
	factory *database.BaseDatabaseFactory
	manager database.AbstractDatabaseManager
	logger  database.Logger
}

type options struct {
	logger database.Logger
	hooks  []bun.QueryHook
}

type Option func(*options)

// WithLogger replaces the package default logger.
func WithLogger(l database.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueryHook installs a Bun query hook, e.g. a database.QueryCounter.
func WithQueryHook(h bun.QueryHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// Open connects using cfg, registers the member and team tables and runs
// migrations when cfg.Migrate.EnableMigrateOnStartup is set.
func Open(ctx context.Context, cfg *database.Config, opts ...Option) (*Client, error) {
	o := &options{logger: database.GetLogger()}
	for _, opt := range opts {
		opt(o)
	}

	factory := database.NewDatabaseFactory()
	factory.SetLogger(o.logger)
	manager, err := factory.CreateFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	entity.Register(manager.Registry())
	manager.ForeignKeys().Add(entity.ForeignKeys()...)
	for _, h := range o.hooks {
		manager.AddQueryHook(h)
	}
	if err := factory.InitializeDatabase(ctx); err != nil {
		return nil, err
	}
	return &Client{factory: factory, manager: manager, logger: o.logger}, nil
}

// Migrate runs pending migrations; Open already does so unless disabled.
func (c *Client) Migrate(ctx context.Context) error {
	return c.manager.RunMigrations(ctx)
}

// Begin opens a session over a new transaction. With SQLite the pool holds a
// single connection, so a second session blocks until the first one ends.
func (c *Client) Begin(ctx context.Context) (*Session, error) {
	db := c.manager.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return newSession(tx, c.logger), nil
}

// InSession runs fn in a session that commits when fn returns nil and rolls
// back otherwise.
func (c *Client) InSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Rollback() }()
	if err := fn(ctx, s); err != nil {
		return err
	}
	return s.Commit(ctx)
}

// DB returns the underlying Bun database, nil once closed.
func (c *Client) DB() *bun.DB {
	return c.manager.GetDB()
}

// Health pings the database and reports pool usage.
func (c *Client) Health(ctx context.Context) *database.HealthStatus {
	return c.factory.GetHealthStatus(ctx)
}

// Stats returns connection pool statistics.
func (c *Client) Stats() *database.DBStats {
	return c.factory.GetStats()
}

// Close disconnects; open sessions must be finished first.
func (c *Client) Close() error {
	return c.factory.Close()
}

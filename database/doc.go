// Package database opens Bun connections to SQLite, PostgreSQL or MySQL and
// bootstraps them: registered tables with their foreign keys, versioned
// migrations, SQL seed files, query hooks and driver error classification.
package database

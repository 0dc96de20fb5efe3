// Package repository provides a generic repository built on Bun: identity
// lookups, predicate queries, projections, pagination and bulk updates,
// bound either to a database or to a transaction.
package repository

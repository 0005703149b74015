// Package database provides connection management for MySQL, PostgreSQL,
// and SQLite on top of Bun: configuration loading, pool tuning, health
// checks with optional reconnect, query logging hooks, model registration,
// SQL error classification, and a SQL script runner for seeding data.
package database

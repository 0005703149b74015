// Package persistence provides a thin data-access façade over a backing
// session: CRUD delegation, commit with ordered pre/post-save notification
// hooks, raw SQL and stored-function execution, all with debug logging at
// operation boundaries. The façade adds observability, not resilience; any
// failure from the backing session propagates to the caller unmodified.
package persistence

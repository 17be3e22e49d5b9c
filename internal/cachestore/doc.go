// Package cachestore implements the durable verification-cache tier on
// SQLite.
//
// The store applies WAL and busy-timeout pragmas, initializes its schema
// from the embedded schema.sql, and refuses to open databases created with
// a different schema version. An optional entry quota makes Put return
// verifycache.ErrQuotaExceeded once the table is full, which triggers the
// cache's evict-and-retry path.
//
// The reconciliation engine depends only on the verifycache.Store
// interface; deployments can substitute any other backing store.
package cachestore

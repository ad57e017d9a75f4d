// Package repositories implements durable client state on SQLite and bbolt.
//
// Key Implementations:
//   - [CredentialRepository] : [session.Backend] over the credentials table
//   - [PerformanceRepository] : offline cache of performance details
//   - [BoltCredentialRepository], [BoltPerformanceRepository] : the same two stores in a bbolt file
//
// [Open] picks the implementations named by the storage driver in config.
package repositories

// Package tasks runs bulk operations against the Stagelog API with real-time
// progress reporting.
//
// # Operations
//
//  1. [Engine.ExportReviews] : Export every review of the signed-in user
//     - Lists the user's reviews
//     - Fetches each detail on a rate-limited worker pool
//     - Writes one export per review via the formatter package
//     - Writes export_manifest.json summarising the run
//
//  2. [Engine.SyncInterested] : Refresh the offline performance cache
//     - Lists the user's interested performances
//     - Fetches each performance detail on the same pool
//     - Upserts every detail into a [repositories.PerformanceCache]
//
// Both operations issue many authenticated requests at once. When the access
// token expires mid-run the requests share one refresh through the services
// dispatcher; if the session is rejected the run stops early.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default to
// prevent blocking.
package tasks

// Package repositories implements the SQLite profile store.
//
// Key Implementations:
//   - [HistoryRepository] : play history, read newest first for queue exclusion and the home feed
//   - [ProfileRepository] : onboarding preferences, one row per user with JSON list columns
//   - [FeedbackRepository] : tracks a user marked as not relevant
//
// Timestamps are stored in UTC. Lookups of a missing row return [shared.ErrNotFound].
package repositories

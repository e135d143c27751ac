// Package repositories implements SQLite persistence for client-side settings.
//
// Key Implementations:
//   - [PreferenceRepository] : key/value preferences with upsert semantics, used for the theme
//
// Rows are keyed by a UUID id and a unique preference key. Missing keys are reported with [shared.ErrNotFound].
package repositories

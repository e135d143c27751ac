// Package models defines the domain types shared by the report session client.
//
// The package contains three groups of types:
//
// 1. Request data
//   - [Credentials] : site login submitted with a report request
//
// 2. Job outcomes
//   - [JobResult] : tagged union of [JobPending], [JobCompleted] and [JobFailed], produced only by the job client
//
// 3. View state
//   - [Phase] : discrete phase of a session
//   - [SessionState] : immutable snapshot rendered by the TUI and CLI
//   - [Theme] : light/dark presentation preference
//   - [Preference] : a stored setting such as the theme
package models

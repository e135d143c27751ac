// Package session owns the lifecycle of one report job as seen from the client.
//
// # Controller
//
// [Controller] is the single source of truth for a session. It reconciles three asynchronous inputs into one
// [models.SessionState]:
//
//  1. [Controller.Submit] : the submit response from the job client
//  2. [Controller.OnStatus] : text frames pushed on the status channel
//  3. [Controller.Cancel] : the stop response after a user cancel
//
// Transitions run under one lock and network calls run outside it. Every transition replaces the state wholesale
// and is delivered to subscribers in order. A submit result that was overtaken by a cancel, a newer submit, or
// teardown is dropped.
//
// # Channel
//
// [Channel] holds at most one status connection at a time and releases it exactly once. Reconnecting after a
// far-end close is off unless a [ReconnectPolicy] enables it, in which case redials are paced with a token bucket
// and capped.
//
// # Teardown
//
// [Controller.Close] must run on every exit path, including while a submit is still in flight. After it returns,
// nothing mutates the state.
package session

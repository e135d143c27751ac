// Package ui implements the interactive report form using bubbletea's Elm architecture.
//
// The TUI has one screen with two layers:
//  1. The credential form: website, SSO username, password and email
//  2. The status modal: shown while a session is not idle, with a single action button
//
// The [Model] subscribes to a [session.Controller]. Snapshots are forwarded through a buffered channel and read back
// by a command, so the controller never calls into bubbletea directly. Submit, cancel and channel setup run as
// commands off the update loop.
//
// When a document is ready the modal shows its link; "o" opens it in the browser and "y" copies it.
// ctrl+t switches between the light and dark palettes and ctrl+c tears the session down and quits.
package ui

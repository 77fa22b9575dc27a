// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports). The CLI and TUI drive the core through these.
package driving

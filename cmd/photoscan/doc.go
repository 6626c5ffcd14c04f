// Package main hosts the photoscan CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the photoscand daemon: starting and controlling scans,
// tailing logs, browsing scan history, managing recognized entities, and
// inspecting the duplicate and skipped-file quarantines. Configuration
// resolution and API address discovery happen once here so subcommands can
// focus on presentation.
package main

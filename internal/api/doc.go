// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates internal analysis and usage models into
// transport-friendly DTOs so the CLI and dashboard consumers never couple to
// internal types.
package api

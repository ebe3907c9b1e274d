// Package daemon coordinates the background services and enforces
// single-instance execution.
//
// The daemon wires the capture store, rate limiter, Gemini client, analysis
// engine, usage store, and monitoring loop together, holds the instance lock,
// and exposes the HTTP API the CLI talks to.
package daemon

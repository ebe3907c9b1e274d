// Package ratelimit enforces local request ceilings for the Gemini client.
//
// The limiter tracks a sliding 60-second window of request timestamps plus a
// calendar-day counter. Admission is synchronous backpressure: when the
// per-minute window is full the caller is told how long to wait before
// sending, and only the daily quota causes outright rejection. State lives in
// memory only; restarting the process resets both counters. That is a known
// limitation, not a bug.
package ratelimit

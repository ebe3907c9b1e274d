// Package gemini wraps the Google Gemini generateContent API.
//
// Key responsibilities:
//   - Build the combined prompt (system preamble, screen transcript, user
//     instruction) and issue a single bounded-timeout HTTP request.
//   - Consult the rate limiter before every send, including connectivity
//     probes, and honor the admission wait before transmitting.
//   - Map transport and API failures onto a small set of sentinel errors so
//     callers can translate them into user-facing messages.
//
// The client never retries on its own; a timeout or 5xx is surfaced to the
// caller, which decides whether the operation is worth repeating.
package gemini

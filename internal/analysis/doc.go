// Package analysis extracts structured fields from free-text model answers.
//
// Extraction is deliberately heuristic: ordered first-match keyword rules over
// the raw answer text. The rules are brittle by design so the behavior stays
// reproducible; a missing pattern never raises, it maps to the documented
// default for the field. Interpret is a pure function with no I/O.
package analysis

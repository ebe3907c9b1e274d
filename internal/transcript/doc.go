// Package transcript reconstructs a readable text transcript from raw
// per-frame OCR records.
//
// Records inside the time window are ordered chronologically and rendered
// under run-length headers: a header line is emitted only when the
// (app, window) pair changes, so consecutive frames of the same app share one
// header. The rendered string is capped at a configured length with a
// truncation marker; the cut happens on the rendered text, so it may fall
// mid-sentence.
package transcript

// Package engine composes the capture store, transcript builder, model
// client, and response interpreter into the two user-facing operations:
// free-form query answering and fixed-schema current-app classification.
//
// AnswerQuery deliberately returns a plain string: every failure mode maps to
// a descriptive user-visible message and nothing from this layer should crash
// a caller. ClassifyCurrentApp returns a structured result plus an error so
// the monitoring loop can distinguish "no content" from model failures.
package engine

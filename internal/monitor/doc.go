// Package monitor runs the background classification loop.
//
// Each pass looks up the focused application, classifies the current screen
// content, records the outcome in the usage store, and raises alerts per the
// engine's policy. Passes never overlap: the next tick is only honored after
// the previous pass returns, however long its rate-limit wait took.
package monitor

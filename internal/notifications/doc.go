// Package notifications delivers alert pushes through ntfy.
//
// When no topic is configured the constructor returns a noop implementation,
// so callers never branch on whether notifications are enabled.
package notifications

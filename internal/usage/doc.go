// Package usage persists classification results and threshold alerts in a
// local SQLite database.
//
// The store owns the schema: app_usage rows record each monitoring pass's
// interpreted analysis, and alerts rows record policy violations raised from
// them. The capture database is never written here; usage gets its own file
// under the data directory.
package usage

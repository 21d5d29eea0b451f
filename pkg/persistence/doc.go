// Package persistence keeps console state in SQLite: registered remote
// clients, saved API tokens sealed by the vault, and UI preferences.
package persistence

//go:build cgo

package store

// cgo SQLite, registered as "sqlite3".
import _ "github.com/mattn/go-sqlite3"

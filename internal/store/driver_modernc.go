package store

// Pure Go SQLite, registered as "sqlite".
import _ "modernc.org/sqlite"

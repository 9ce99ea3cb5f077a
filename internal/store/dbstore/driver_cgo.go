//go:build !purego

package dbstore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openDialector returns the cgo SQLite driver (mattn/go-sqlite3).
func openDialector(dbPath string) gorm.Dialector {
	return sqlite.Open(dbPath)
}

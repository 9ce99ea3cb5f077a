//go:build purego

package dbstore

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// openDialector returns the pure Go SQLite driver, for CGO_ENABLED=0 builds.
func openDialector(dbPath string) gorm.Dialector {
	return sqlite.Open(dbPath)
}

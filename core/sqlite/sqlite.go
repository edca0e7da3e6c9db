// Package sqlite selects a SQLite driver at build time and opens
// databases through it.
//
// The default build (CGO_ENABLED=0) uses the pure Go
// modernc.org/sqlite driver; building with -tags cgo_sqlite and
// CGO_ENABLED=1 switches to mattn/go-sqlite3. The registered driver
// name differs between the two, so open databases through this
// package rather than calling sql.Open directly.
package sqlite

import (
	"database/sql"
	"fmt"
)

// DriverName returns the name the active driver registered with
// database/sql.
func DriverName() string {
	return driverName
}

// DriverType identifies the active implementation, "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the cgo driver was compiled in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database with the active driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens an existing database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open(path + "?mode=ro")
}

// MustOpen opens a SQLite database and panics on error. Intended for
// tests and startup code where a failure to open is unrecoverable.
func MustOpen(dataSourceName string) *sql.DB {
	db, err := Open(dataSourceName)
	if err != nil {
		panic(fmt.Sprintf("sqlite: open %s: %v", dataSourceName, err))
	}
	return db
}

// Info describes the driver the binary was built with.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo reports the active driver configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}

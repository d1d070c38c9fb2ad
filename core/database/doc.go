// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL (production) or SQLite (local runs and tests)
// connections from the application's configuration, and to migrate the
// compensation record schema.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for either dialect. The
// integrity feature uses it to compare the live schema against the GORM models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "compensation_records")
package database

// Package database provides SQLite connectivity for the controller.
//
// The controller keeps its mirrored state tree in SQLite. This package opens
// the file (WAL mode, busy timeout, single writer) and applies schema
// migrations from an fs.FS, normally the embedded migrations package.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are nullable or defaulted, and every
// .up.sql file has a matching .down.sql.
package database

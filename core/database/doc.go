// Package database opens the SQLite database that backs the run journal.
//
// It wraps GORM with the sqlite driver. The default DSN keeps everything in
// memory, so a journal lives exactly as long as the process that wrote it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return fmt.Errorf("failed to open journal database: %w", err)
//	}
package database

package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/generator"
)

const (
	sqlRecordCountInfo = 1000

	sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS filgen (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Identifier"   TEXT NOT NULL,
		"Source"       TEXT NOT NULL,
		"FileIndex"    INTEGER,
		"Path"         TEXT NOT NULL,
		"Created"      INTEGER,
		"Type"         TEXT,
		"StartChan"    INTEGER,
		"StartFreq"    REAL,
		"Drift"        REAL,
		"Level"        REAL,
		"Intensity"    REAL,
		"Width"        REAL,
		"Fchans"       INTEGER,
		"Tchans"       INTEGER,
		"Df"           REAL,
		"Dt"           REAL,
		"Fch1"         REAL
	);`
	insertRecordTmpl = `INSERT INTO filgen (
		Identifier,
		Source,
		FileIndex,
		Path,
		Created,
		Type,
		StartChan,
		StartFreq,
		Drift,
		Level,
		Intensity,
		Width,
		Fchans,
		Tchans,
		Df,
		Dt,
		Fch1
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

// SQLite stores records in a sqlite3 database.
type SQLite struct {
	DB *sql.DB
}

func (s *SQLite) Write(ctx context.Context, records <-chan generator.Record) error {
	return writeSQL(ctx, s.DB, sqliteCreateTableTmpl, "sqlite", records)
}

func writeSQL(ctx context.Context, db *sql.DB, createTableTmpl, dialect string, records <-chan generator.Record) error {
	if _, err := db.ExecContext(ctx, createTableTmpl); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}
	statement, err := db.PrepareContext(ctx, insertRecordTmpl)
	if err != nil {
		return fmt.Errorf("unable to prepare insert: %s", err)
	}
	defer statement.Close()

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for r := range records {
		counts["total"] += 1
		if err := insertRecord(ctx, statement, r); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing in %s DB: %s\n", dialect, err)
			continue
		}
		counts["success"] += 1
		if counts["total"]%sqlRecordCountInfo == 0 {
			glog.Infof("Record export counts: %+v\n", counts)
		}
	}
	glog.V(1).Infof("Record export counts: %+v\n", counts)

	return nil
}

func insertRecord(ctx context.Context, statement *sql.Stmt, r generator.Record) error {
	_, err := statement.ExecContext(ctx,
		r.Identifier,
		r.Source,
		r.Index,
		r.Path,
		r.Created.UnixMilli(),
		r.Type,
		r.StartChan,
		r.StartFreq,
		r.Drift,
		r.Level,
		r.Intensity,
		r.Width,
		r.Fchans,
		r.Tchans,
		r.Df,
		r.Dt,
		r.Fch1,
	)
	return err
}

package export

import (
	"context"
	"database/sql"

	"github.com/hb9tf/filgen/generator"
)

const mysqlCreateTableTmpl = `CREATE TABLE IF NOT EXISTS filgen (
		ID           BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		Identifier   VARCHAR(64) NOT NULL,
		Source       VARCHAR(64) NOT NULL,
		FileIndex    INT,
		Path         TEXT NOT NULL,
		Created      BIGINT,
		Type         VARCHAR(32),
		StartChan    INT,
		StartFreq    DOUBLE,
		Drift        DOUBLE,
		Level        DOUBLE,
		Intensity    DOUBLE,
		Width        DOUBLE,
		Fchans       INT,
		Tchans       INT,
		Df           DOUBLE,
		Dt           DOUBLE,
		Fch1         DOUBLE
	);`

// MySQL stores records in a MySQL database.
type MySQL struct {
	DB *sql.DB
}

func (m *MySQL) Write(ctx context.Context, records <-chan generator.Record) error {
	return writeSQL(ctx, m.DB, mysqlCreateTableTmpl, "MySQL", records)
}

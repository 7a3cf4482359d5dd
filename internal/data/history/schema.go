package history

import "database/sql"

const SchemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS rebuilds (
  id            TEXT PRIMARY KEY,
  segment       TEXT NOT NULL,
  trigger_kind  TEXT NOT NULL,
  member_count  INTEGER NOT NULL,
  duration_ms   INTEGER NOT NULL,
  ts_utc        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rebuilds_segment ON rebuilds(segment, ts_utc);
CREATE INDEX IF NOT EXISTS idx_rebuilds_ts ON rebuilds(ts_utc);
`

func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schemaDDL)
	return err
}

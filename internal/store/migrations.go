package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS checkin_events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	stage      TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	count      INTEGER NOT NULL DEFAULT 0,
	message    TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkin_events_created ON checkin_events(created_at);
CREATE INDEX IF NOT EXISTS idx_checkin_events_category ON checkin_events(category);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

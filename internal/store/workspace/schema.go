// Package workspace implements the per-workspace schema owning memories,
// items, the skip list, identity snapshots, consolidations,
// settings, and the access log. Each workspace gets its own *Store backed
// by its own database connection (local sqlite file or remote Postgres),
// so a workspace can reside on its own backing database.
package workspace

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	type TEXT NOT NULL,
	tags TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP,
	relevance REAL NOT NULL DEFAULT 0,
	access_count INTEGER NOT NULL DEFAULT 0,
	last_accessed_at TIMESTAMP,
	consolidated INTEGER NOT NULL DEFAULT 0,
	consolidated_into TEXT,
	linkages TEXT NOT NULL DEFAULT '[]',
	images TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_memories_consolidated ON memories(consolidated);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	next_action TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	last_touched TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS skip_entries (
	id TEXT PRIMARY KEY,
	item TEXT NOT NULL,
	reason TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	added_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skip_expires ON skip_entries(expires_at);

CREATE TABLE IF NOT EXISTS identity_snapshots (
	id TEXT PRIMARY KEY,
	crystal TEXT NOT NULL,
	source_count INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_identity_created ON identity_snapshots(created_at);

CREATE TABLE IF NOT EXISTS consolidations (
	id TEXT PRIMARY KEY,
	summary TEXT NOT NULL,
	source_ids TEXT NOT NULL,
	tags TEXT NOT NULL,
	kind TEXT NOT NULL,
	method TEXT NOT NULL,
	template_summary TEXT NOT NULL DEFAULT '',
	new_memory_id TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_consolidations_created ON consolidations(created_at);

CREATE TABLE IF NOT EXISTS access_log (
	id TEXT PRIMARY KEY,
	memory_id TEXT NOT NULL REFERENCES memories(id),
	query TEXT NOT NULL DEFAULT '',
	at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_log_memory ON access_log(memory_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

package database

// schema is applied on startup. Statements are idempotent so a restart
// against an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS watchlist_entries (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	movie_id    BIGINT NOT NULL,
	title       TEXT NOT NULL,
	poster_path TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'want_to_watch'
		CHECK (status IN ('want_to_watch', 'watching', 'watched')),
	rating      INT CHECK (rating BETWEEN 1 AND 10),
	notes       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_watchlist_entries_user_id
	ON watchlist_entries (user_id);
`

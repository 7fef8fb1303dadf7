package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"skiff/internal/domain/repositories"
)

// RepositoryConfig holds shared dependencies for repository implementations.
type RepositoryConfig struct {
	DB     *sqlx.DB
	Logger *slog.Logger
}

// Open opens (creating if necessary) the single-file database at path and
// bootstraps the schema. Pass ":memory:" for an in-memory database in tests.
//
// WAL mode lets concurrent readers proceed while the engine's write lock
// serializes writers. The pool is capped at one connection: SQLite allows a
// single writer anyway, and a shared handle keeps ":memory:" databases from
// silently splitting across pool connections.
func Open(path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_loc=UTC", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	email    TEXT NOT NULL UNIQUE,
	password TEXT
);

CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	title      TEXT NOT NULL,
	user_id    TEXT NOT NULL REFERENCES users (id),
	visibility TEXT NOT NULL DEFAULT 'private'
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	chat_id     TEXT NOT NULL REFERENCES chats (id),
	role        TEXT NOT NULL,
	parts       TEXT NOT NULL,
	attachments TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS votes (
	chat_id    TEXT NOT NULL REFERENCES chats (id),
	message_id TEXT NOT NULL REFERENCES messages (id),
	is_upvoted INTEGER NOT NULL,
	PRIMARY KEY (chat_id, message_id)
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT,
	kind       TEXT NOT NULL DEFAULT 'text',
	user_id    TEXT NOT NULL REFERENCES users (id),
	PRIMARY KEY (id, created_at)
);

CREATE TABLE IF NOT EXISTS suggestions (
	id                  TEXT PRIMARY KEY,
	document_id         TEXT NOT NULL,
	document_created_at DATETIME NOT NULL,
	original_text       TEXT NOT NULL,
	suggested_text      TEXT NOT NULL,
	description         TEXT,
	is_resolved         INTEGER NOT NULL DEFAULT 0,
	user_id             TEXT NOT NULL REFERENCES users (id),
	created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS streams (
	id         TEXT PRIMARY KEY,
	chat_id    TEXT NOT NULL REFERENCES chats (id),
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_user_id ON chats (user_id);
CREATE INDEX IF NOT EXISTS idx_chats_created_at ON chats (created_at);
CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages (chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at);
CREATE INDEX IF NOT EXISTS idx_documents_id ON documents (id);
CREATE INDEX IF NOT EXISTS idx_streams_chat_id ON streams (chat_id);
`

// GetExecutor returns the transaction bound to the context when one exists,
// the shared handle otherwise. This lets repositories automatically
// participate in transactions opened by the TransactionManager.
func GetExecutor(ctx context.Context, db *sqlx.DB) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return db
}

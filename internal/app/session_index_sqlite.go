package app

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// sessionIndex is a small SQLite catalog over the JSONL session files. The
// files stay the source of truth; the index only serves listing and lookup.
type sessionIndex struct {
	db *sql.DB
}

func openSessionIndex(dbPath string) (*sessionIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Keep sqlite responsive under contention.
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			parent_id TEXT,
			work_dir TEXT NOT NULL,
			title TEXT,
			file TEXT NOT NULL,
			entry_count INTEGER NOT NULL DEFAULT 0,
			created_at_ns INTEGER NOT NULL,
			updated_at_ns INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_workdir_updated ON sessions(work_dir, updated_at_ns);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_parent ON sessions(parent_id);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &sessionIndex{db: db}, nil
}

func (x *sessionIndex) Close() error {
	return x.db.Close()
}

func (x *sessionIndex) upsert(sess *Session, file string, entryCount int) error {
	_, err := x.db.Exec(`
		INSERT INTO sessions (id, parent_id, work_dir, title, file, entry_count, created_at_ns, updated_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			entry_count = excluded.entry_count,
			updated_at_ns = excluded.updated_at_ns;`,
		sess.ID, sess.ParentID, sess.WorkDir, sess.Title, file, entryCount,
		sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano())
	return err
}

func (x *sessionIndex) list(workDir string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := x.db.Query(`
		SELECT id, parent_id, work_dir, title, entry_count, created_at_ns, updated_at_ns
		FROM sessions WHERE work_dir = ?
		ORDER BY updated_at_ns DESC LIMIT ?;`, workDir, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sess                   Session
			parent, title          sql.NullString
			entryCount             int
			createdNs, updatedNs   int64
		)
		if err := rows.Scan(&sess.ID, &parent, &sess.WorkDir, &title, &entryCount, &createdNs, &updatedNs); err != nil {
			return nil, err
		}
		sess.ParentID = parent.String
		sess.Title = title.String
		sess.CreatedAt = time.Unix(0, createdNs)
		sess.UpdatedAt = time.Unix(0, updatedNs)
		out = append(out, SessionSummary{
			Session:      sess,
			EntryCount:   entryCount,
			LastActivity: sess.UpdatedAt,
		})
	}
	return out, rows.Err()
}

func (x *sessionIndex) files() ([]string, error) {
	rows, err := x.db.Query(`SELECT file FROM sessions ORDER BY updated_at_ns DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, rows.Err()
}

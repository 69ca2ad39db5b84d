package artifacts

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
create table if not exists artifacts (
	run_key text not null,
	segment integer not null,
	stage text not null,
	content text not null,
	created_at timestamp not null default current_timestamp,
	primary key (run_key, segment, stage)
);
`

// SQLiteStore keeps checkpoint artifacts for many runs in a single database
// file, keyed by (run_key, segment, stage).
type SQLiteStore struct {
	db     *sql.DB
	runKey string
}

// OpenSQLiteStore opens (creating if needed) the database at path and scopes
// the store to one run key.
func OpenSQLiteStore(path, runKey string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing artifact schema: %w", err)
	}
	return &SQLiteStore{db: db, runKey: runKey}, nil
}

// Get reads the artifact for the key within the store's run.
func (s *SQLiteStore) Get(segment int, stage Stage) (string, bool, error) {
	var content string
	err := s.db.
		QueryRow(
			"select content from artifacts where run_key = $1 and segment = $2 and stage = $3",
			s.runKey, segment, string(stage),
		).
		Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get artifact (%d, %s): %w", segment, stage, err)
	}
	return content, true, nil
}

// Put records the artifact. An existing artifact for the key is kept as-is;
// artifacts are completion markers and are never rewritten.
func (s *SQLiteStore) Put(segment int, stage Stage, text string) error {
	_, err := s.db.Exec(
		"insert into artifacts (run_key, segment, stage, content) values ($1, $2, $3, $4) on conflict do nothing",
		s.runKey, segment, string(stage), text,
	)
	if err != nil {
		return fmt.Errorf("put artifact (%d, %s): %w", segment, stage, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

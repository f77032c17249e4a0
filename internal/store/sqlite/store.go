// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// sqliteReplacements run in fixed order, longest keys first: BIGSERIAL
// contains SERIAL as a substring, so an unordered pass can clip it into
// invalid DDL.
var sqliteReplacements = []struct {
	from string
	to   string
}{
	{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{"BIGINT", "INTEGER"},
	{"TIMESTAMPTZ", "TIMESTAMP"},
	{"TRUE", "1"},
	{"FALSE", "0"},
	{"now()", "CURRENT_TIMESTAMP"},
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	result := sql
	for _, r := range sqliteReplacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

func (s *SQLiteStore) FetchJudgeActivity(eventID int64) ([]store.JudgeActivity, error) {
	query := `
		WITH judge_marks AS (
			SELECT
				judge_id,
				COUNT(*) as mark_count,
				COUNT(DISTINCT participant_id) as participants,
				SUM(marks_obtained) as total_awarded
			FROM marks
			WHERE event_id = ?
			GROUP BY judge_id
		)
		SELECT
			jm.judge_id,
			COALESCE(j.name, 'unattributed') as judge_name,
			jm.mark_count,
			jm.participants,
			jm.total_awarded
		FROM judge_marks jm
		LEFT JOIN judges j ON j.id = jm.judge_id
		ORDER BY judge_name, jm.judge_id
	`

	var results []store.JudgeActivity
	if err := s.DB.Select(&results, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to fetch judge activity: %w", err)
	}
	return results, nil
}

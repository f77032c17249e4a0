package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func (s *PostgresStore) FetchJudgeActivity(eventID int64) ([]store.JudgeActivity, error) {
	query := `
        WITH judge_marks AS (
            SELECT
                judge_id,
                COUNT(*) as mark_count,
                COUNT(DISTINCT participant_id) as participants,
                SUM(marks_obtained) as total_awarded
            FROM marks
            WHERE event_id = $1
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

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

var (
	// ErrNotFound means the row for the given id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected means a conditional update was accepted by the
	// transport but matched no row. Distinct from a query error on purpose:
	// the lock toggle must report it as its own failure.
	ErrNoRowsAffected = errors.New("update did not apply")
)

type MarkStore interface {
	Close() error
	ApplyMigrations(dir string) error

	GetEvent(id int64) (*models.Event, error)
	ListActiveEvents() ([]models.Event, error)
	UpdateEventLock(id int64, locked bool, by *string, at *time.Time) error

	ListCriteria(eventID int64) ([]models.Criterion, error)
	ListParticipants(eventID int64) ([]models.Participant, error)
	ListCategoryParticipants(eventID int64, category string) ([]models.Participant, error)

	ListMarks(f MarkFilter) ([]models.Mark, error)
	UpsertMarks(rows []models.Mark) error

	GetJudge(id int64) (*models.Judge, error)
	ListJudges() ([]models.Judge, error)

	GetAdminUser(username string) (*models.AdminUser, error)

	FetchJudgeActivity(eventID int64) ([]JudgeActivity, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetEvent(id int64) (*models.Event, error) {
	var ev models.Event
	query := s.Converter(`
		SELECT id, name, description, date, is_active, rounds, is_locked, locked_by, locked_at
		FROM events
		WHERE id = ?
	`)

	err := s.DB.Get(&ev, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &ev, nil
}

func (s *BaseStore) ListActiveEvents() ([]models.Event, error) {
	var events []models.Event
	query := s.Converter(`
		SELECT id, name, description, date, is_active, rounds, is_locked, locked_by, locked_at
		FROM events
		WHERE is_active = ?
		ORDER BY date, id
	`)

	if err := s.DB.Select(&events, query, true); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpdateEventLock persists a lock transition as one conditional update. Zero
// rows affected is reported as ErrNoRowsAffected, not swallowed.
func (s *BaseStore) UpdateEventLock(id int64, locked bool, by *string, at *time.Time) error {
	query := s.Converter(`
		UPDATE events
		SET is_locked = ?, locked_by = ?, locked_at = ?
		WHERE id = ?
	`)

	res, err := s.DB.Exec(query, locked, by, at, id)
	if err != nil {
		return fmt.Errorf("failed to update event lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lock update for event %d: %w", id, ErrNoRowsAffected)
	}
	return nil
}

func (s *BaseStore) ListCriteria(eventID int64) ([]models.Criterion, error) {
	var criteria []models.Criterion
	query := s.Converter(`
		SELECT id, event_id, criteria_name, max_marks
		FROM judgment_criteria
		WHERE event_id = ?
		ORDER BY id
	`)

	if err := s.DB.Select(&criteria, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return criteria, nil
}

func (s *BaseStore) ListParticipants(eventID int64) ([]models.Participant, error) {
	var participants []models.Participant
	query := s.Converter(`
		SELECT id, event_id, name, school_code, team_id, solo_marking, class, scholar_number, category
		FROM participants
		WHERE event_id = ?
		ORDER BY category, team_id, name
	`)

	if err := s.DB.Select(&participants, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *BaseStore) ListCategoryParticipants(eventID int64, category string) ([]models.Participant, error) {
	var participants []models.Participant
	query := s.Converter(`
		SELECT id, event_id, name, school_code, team_id, solo_marking, class, scholar_number, category
		FROM participants
		WHERE event_id = ?
		AND category = ?
		ORDER BY team_id, name
	`)

	if err := s.DB.Select(&participants, query, eventID, category); err != nil {
		return nil, fmt.Errorf("failed to list category participants: %w", err)
	}
	return participants, nil
}

func (s *BaseStore) ListMarks(f MarkFilter) ([]models.Mark, error) {
	query := `
		SELECT id, event_id, participant_id, criteria_id, round_number, marks_obtained, judge_id
		FROM marks
		WHERE event_id = ?
	`
	args := []interface{}{f.EventID}

	if len(f.ParticipantIDs) > 0 {
		query += ` AND participant_id IN (?)`
		args = append(args, f.ParticipantIDs)
	}
	if f.JudgeID != nil {
		query += ` AND judge_id = ?`
		args = append(args, *f.JudgeID)
	}
	query += ` ORDER BY participant_id, criteria_id, round_number, judge_id`

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build marks query: %w", err)
	}

	var marks []models.Mark
	if err := s.DB.Select(&marks, s.Converter(query), expanded...); err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	return marks, nil
}

// UpsertMarks writes mark rows keyed on the full natural tuple
// (event_id, participant_id, criteria_id, round_number, judge_id).
// Anything shorter would let judges overwrite each other's rows.
func (s *BaseStore) UpsertMarks(rows []models.Mark) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin marks upsert: %w", err)
	}

	for _, row := range rows {
		_, err := tx.NamedExec(`
			INSERT INTO marks (event_id, participant_id, criteria_id, round_number, marks_obtained, judge_id)
			VALUES (:event_id, :participant_id, :criteria_id, :round_number, :marks_obtained, :judge_id)
			ON CONFLICT(event_id, participant_id, criteria_id, round_number, judge_id) DO UPDATE SET
			marks_obtained = excluded.marks_obtained
		`, row)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert mark: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit marks upsert: %w", err)
	}
	return nil
}

func (s *BaseStore) GetJudge(id int64) (*models.Judge, error) {
	var judge models.Judge
	query := s.Converter(`
		SELECT id, name, username
		FROM judges
		WHERE id = ?
	`)

	err := s.DB.Get(&judge, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get judge: %w", err)
	}
	return &judge, nil
}

func (s *BaseStore) ListJudges() ([]models.Judge, error) {
	var judges []models.Judge
	err := s.DB.Select(&judges, `
		SELECT id, name, username
		FROM judges
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list judges: %w", err)
	}
	return judges, nil
}

func (s *BaseStore) GetAdminUser(username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	query := s.Converter(`
		SELECT username, password_hash, is_god_admin, event_access
		FROM admin_users
		WHERE username = ?
	`)

	err := s.DB.Get(&admin, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &admin, nil
}

// Package export renders final standings for handoff outside the system,
// typically for printing certificates or the closing announcement.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/scoring"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

// StandingsExporter writes one CSV row per team, ranked within category.
type StandingsExporter struct {
	store  store.MarkStore
	engine *scoring.Engine
}

func NewStandingsExporter(markStore store.MarkStore, engine *scoring.Engine) *StandingsExporter {
	return &StandingsExporter{
		store:  markStore,
		engine: engine,
	}
}

// WriteEvent exports the full standings of one event. Team-marked teams get
// one row listing every member; totals follow the same counting rules as the
// live sheets.
func (e *StandingsExporter) WriteEvent(w io.Writer, eventID int64) error {
	ev, err := e.store.GetEvent(eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	criteria, err := e.store.ListCriteria(eventID)
	if err != nil {
		return fmt.Errorf("failed to load criteria: %w", err)
	}
	participants, err := e.store.ListParticipants(eventID)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	marks, err := e.store.ListMarks(store.MarkFilter{EventID: eventID})
	if err != nil {
		return fmt.Errorf("failed to load marks: %w", err)
	}

	ix := scoring.NewMarkIndex(marks)

	cw := csv.NewWriter(w)
	header := []string{"category", "rank", "team_id", "school_code", "members", "total_marks"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, group := range e.engine.Categorize(participants) {
		teams := e.engine.ScoreTeams(group.Teams, criteria, ix, ev.Rounds)
		for _, team := range teams {
			names := make([]string, len(team.Participants))
			for i, p := range team.Participants {
				names[i] = p.Name
			}
			row := []string{
				group.Category,
				strconv.Itoa(team.Rank),
				team.TeamID,
				team.SchoolCode,
				strings.Join(names, "; "),
				strconv.Itoa(team.TotalMarks),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row for team %s: %w", team.TeamID, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	return nil
}

// PickEvent helps the CLI resolve "the only active event" when no explicit
// id is given.
func PickEvent(markStore store.MarkStore) (*models.Event, error) {
	events, err := markStore.ListActiveEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	switch len(events) {
	case 0:
		return nil, fmt.Errorf("no active events to export")
	case 1:
		return &events[0], nil
	default:
		ids := make([]string, len(events))
		for i, ev := range events {
			ids[i] = strconv.FormatInt(ev.ID, 10)
		}
		return nil, fmt.Errorf("multiple active events (%s), pass -event explicitly", strings.Join(ids, ", "))
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shrimpsizemoose/lussekatt/internal/access"
	"github.com/shrimpsizemoose/lussekatt/internal/lock"
	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/scoring"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
	"github.com/shrimpsizemoose/trekker/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrValidation marks boundary failures that must never reach the
	// aggregation logic.
	ErrValidation = errors.New("validation failed")
)

type Service struct {
	Config   *Config
	Store    store.MarkStore
	Sessions SessionStore
	Engine   *scoring.Engine
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	markStore, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	sessions, err := NewSessionStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init sessions: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    markStore,
		Sessions: sessions,
		Engine: scoring.NewEngine(
			scoring.TieBreak(config.Scoring.TieBreak),
			config.Scoring.DefaultCategory,
		),
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

// Login checks the stored credential and opens a session. The password
// comparison is plain equality against the stored value; hardening it is
// out of scope here.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Session, error) {
	admin, err := s.Store.GetAdminUser(username)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if password != admin.PasswordHash {
		return "", nil, ErrInvalidCredentials
	}

	sess := &Session{
		Username:    admin.Username,
		IsGodAdmin:  admin.IsGodAdmin,
		EventAccess: admin.AccessList(),
		CreatedTime: time.Now().UTC(),
	}

	token, err := s.Sessions.Create(ctx, sess)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	return token, sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, token)
}

// TokenFromRequest extracts the bearer session token, empty when absent.
func (s *Service) TokenFromRequest(r *http.Request) string {
	header := r.Header.Get(s.Config.Sessions.TokenHeader)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// IdentityFromRequest resolves the caller's identity once; everything
// downstream receives it explicitly. Unknown or absent tokens resolve to
// an unauthenticated identity, never an error.
func (s *Service) IdentityFromRequest(r *http.Request) access.Identity {
	token := s.TokenFromRequest(r)
	if token == "" {
		return access.Anonymous()
	}

	sess, err := s.Sessions.Get(r.Context(), token)
	if err != nil {
		logger.Error.Printf("Session lookup failed: %v", err)
		return access.Anonymous()
	}
	if sess == nil {
		return access.Anonymous()
	}
	return sess.Identity()
}

// loadMarks fetches mark rows, degrading a failed marks query to an empty
// set: the sheet still renders, the failure is only logged.
func (s *Service) loadMarks(f store.MarkFilter) []models.Mark {
	marks, err := s.Store.ListMarks(f)
	if err != nil {
		logger.Error.Printf("Marks loading failed for event %d, proceeding with empty marks: %v", f.EventID, err)
		return nil
	}
	return marks
}

type SheetData struct {
	Event                 *models.Event           `json:"event"`
	Criteria              []models.Criterion      `json:"criteria"`
	Categories            []scoring.CategoryGroup `json:"categories"`
	TotalPossiblePerRound int                     `json:"total_possible_per_round"`
}

// EventSheet loads the all-judges judging overview: every category of the
// event with team totals summed across judges and ranked. The event-level
// access gate runs before any dependent fetch.
func (s *Service) EventSheet(id access.Identity, eventID int64) (*SheetData, error) {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if err := access.CheckView(id, ev); err != nil {
		return nil, err
	}

	criteria, err := s.Store.ListCriteria(eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.Store.ListParticipants(eventID)
	if err != nil {
		return nil, err
	}

	ix := scoring.NewMarkIndex(s.loadMarks(store.MarkFilter{EventID: eventID}))

	categories := s.Engine.Categorize(participants)
	for i := range categories {
		categories[i].Teams = s.Engine.ScoreTeams(categories[i].Teams, criteria, ix, ev.Rounds)
		s.warnStrays(ev.ID, categories[i].Teams)
	}

	totalPossible := 0
	for _, c := range criteria {
		totalPossible += c.MaxMarks
	}

	return &SheetData{
		Event:                 ev,
		Criteria:              criteria,
		Categories:            categories,
		TotalPossiblePerRound: totalPossible,
	}, nil
}

type CategorySheetData struct {
	Event    *models.Event      `json:"event"`
	Judge    *models.Judge      `json:"judge"`
	Criteria []models.Criterion `json:"criteria"`
	Teams    []scoring.Team     `json:"teams"`
	Marks    []models.Mark      `json:"marks"`
}

// CategorySheet loads one judge's marking sheet for one category: totals
// and ranks come from that judge's rows only, and the raw rows ride along
// for the editing grid.
func (s *Service) CategorySheet(id access.Identity, eventID int64, category string, judgeID int64) (*CategorySheetData, error) {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if err := access.CheckView(id, ev); err != nil {
		return nil, err
	}

	judge, err := s.Store.GetJudge(judgeID)
	if err != nil {
		return nil, err
	}

	criteria, err := s.Store.ListCriteria(eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.Store.ListCategoryParticipants(eventID, category)
	if err != nil {
		return nil, err
	}

	var marks []models.Mark
	if len(participants) > 0 {
		ids := make([]int64, len(participants))
		for i, p := range participants {
			ids[i] = p.ID
		}
		marks = s.loadMarks(store.MarkFilter{
			EventID:        eventID,
			ParticipantIDs: ids,
			JudgeID:        &judgeID,
		})
	}

	teams := s.Engine.ScoreTeams(scoring.BuildTeams(participants), criteria, scoring.NewMarkIndex(marks), ev.Rounds)
	s.warnStrays(ev.ID, teams)

	return &CategorySheetData{
		Event:    ev,
		Judge:    judge,
		Criteria: criteria,
		Teams:    teams,
		Marks:    marks,
	}, nil
}

// MarkInput is one cell of the marking grid as submitted by a judge.
type MarkInput struct {
	ParticipantID int64 `json:"participant_id" validate:"required"`
	CriteriaID    int64 `json:"criteria_id" validate:"required"`
	RoundNumber   int   `json:"round_number" validate:"required,min=1"`
	MarksObtained int   `json:"marks_obtained" validate:"min=0"`
}

// SaveMarks validates and upserts one judge's mark rows. The lock gate runs
// before anything touches the store; validation failures never reach it
// either. Re-submitting a cell overwrites the previous value for the same
// judge and leaves other judges' rows alone.
func (s *Service) SaveMarks(id access.Identity, eventID, judgeID int64, inputs []MarkInput) error {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return err
	}
	if err := access.CheckMarkEntry(id, ev); err != nil {
		return err
	}

	if _, err := s.Store.GetJudge(judgeID); err != nil {
		return err
	}

	criteria, err := s.Store.ListCriteria(eventID)
	if err != nil {
		return err
	}
	maxByID := make(map[int64]int, len(criteria))
	for _, c := range criteria {
		maxByID[c.ID] = c.MaxMarks
	}

	participants, err := s.Store.ListParticipants(eventID)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(participants))
	for _, p := range participants {
		known[p.ID] = true
	}

	validate := validator.New()
	rows := make([]models.Mark, 0, len(inputs))
	for _, in := range inputs {
		if err := validate.Struct(in); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if !known[in.ParticipantID] {
			return fmt.Errorf("%w: participant %d does not belong to event %d", ErrValidation, in.ParticipantID, eventID)
		}
		max, ok := maxByID[in.CriteriaID]
		if !ok {
			return fmt.Errorf("%w: criterion %d does not belong to event %d", ErrValidation, in.CriteriaID, eventID)
		}
		if in.MarksObtained > max {
			return fmt.Errorf("%w: marks %d exceed max %d for criterion %d", ErrValidation, in.MarksObtained, max, in.CriteriaID)
		}
		if in.RoundNumber > ev.Rounds {
			return fmt.Errorf("%w: round %d exceeds event rounds %d", ErrValidation, in.RoundNumber, ev.Rounds)
		}

		rows = append(rows, models.Mark{
			EventID:       eventID,
			ParticipantID: in.ParticipantID,
			CriteriaID:    in.CriteriaID,
			RoundNumber:   in.RoundNumber,
			MarksObtained: in.MarksObtained,
			JudgeID:       judgeID,
		})
	}

	return s.Store.UpsertMarks(rows)
}

// ToggleLock runs the lock state machine for an event. A transition to the
// state already held is a benign no-op (changed=false, no write). After a
// real write the row is read back once; a mismatch is logged, never retried.
func (s *Service) ToggleLock(id access.Identity, eventID int64, locked bool) (*models.Event, bool, error) {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return nil, false, err
	}
	if err := access.CheckLockToggle(id, ev); err != nil {
		return nil, false, err
	}

	next, changed := lock.FromEvent(ev).Transition(locked, id.Username, time.Now().UTC())
	if !changed {
		return ev, false, nil
	}

	if err := s.Store.UpdateEventLock(eventID, next.Locked, next.By, next.At); err != nil {
		return nil, false, err
	}

	verified, err := s.Store.GetEvent(eventID)
	if err != nil {
		logger.Error.Printf("Lock verify read failed for event %d: %v", eventID, err)
		next.Apply(ev)
		return ev, true, nil
	}
	if verified.IsLocked != next.Locked {
		logger.Error.Printf(
			"Lock verify mismatch for event %d: wrote is_locked=%t, read back %t",
			eventID, next.Locked, verified.IsLocked,
		)
	}
	return verified, true, nil
}

type ResultEntry struct {
	TeamID          string               `json:"team_id"`
	SchoolCode      string               `json:"school_code"`
	Members         []models.Participant `json:"members"`
	SoloMarking     bool                 `json:"solo_marking"`
	TotalMarks      int                  `json:"total_marks"`
	Rank            int                  `json:"rank"`
	MarksByCriteria map[int64]int        `json:"marks_by_criteria"`
	JudgeTotals     map[int64]int        `json:"judge_totals"`
}

type CategoryResults struct {
	Category string        `json:"category"`
	Entries  []ResultEntry `json:"entries"`
}

type EventResults struct {
	Event         *models.Event         `json:"event"`
	Criteria      []models.Criterion    `json:"criteria"`
	Judges        []models.Judge        `json:"judges"`
	Categories    []CategoryResults     `json:"categories"`
	JudgeActivity []store.JudgeActivity `json:"judge_activity"`
}

// Results assembles the admin results view: per category, ranked entries
// with per-criterion sums and per-judge totals across all judges.
func (s *Service) Results(id access.Identity, eventID int64) (*EventResults, error) {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if err := access.CheckResults(id, ev); err != nil {
		return nil, err
	}

	criteria, err := s.Store.ListCriteria(eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.Store.ListParticipants(eventID)
	if err != nil {
		return nil, err
	}
	judges, err := s.Store.ListJudges()
	if err != nil {
		return nil, err
	}

	ix := scoring.NewMarkIndex(s.loadMarks(store.MarkFilter{EventID: eventID}))

	var categories []CategoryResults
	for _, group := range s.Engine.Categorize(participants) {
		teams := s.Engine.ScoreTeams(group.Teams, criteria, ix, ev.Rounds)
		s.warnStrays(ev.ID, teams)

		entries := make([]ResultEntry, 0, len(teams))
		for _, team := range teams {
			counted := team.Participants
			if !team.SoloMarking && len(counted) > 1 {
				counted = counted[:1]
			}

			byCriteria := make(map[int64]int, len(criteria))
			judgeTotals := make(map[int64]int, len(judges))
			for _, p := range counted {
				perCriterion, _ := s.Engine.CriterionTotals(p.ID, criteria, ix, ev.Rounds)
				for cid, sum := range perCriterion {
					byCriteria[cid] += sum
				}
				for jid, perCrit := range s.Engine.JudgeBreakdown(p.ID, judges, criteria, ix, ev.Rounds) {
					for _, sum := range perCrit {
						judgeTotals[jid] += sum
					}
				}
			}

			entries = append(entries, ResultEntry{
				TeamID:          team.TeamID,
				SchoolCode:      team.SchoolCode,
				Members:         team.Participants,
				SoloMarking:     team.SoloMarking,
				TotalMarks:      team.TotalMarks,
				Rank:            team.Rank,
				MarksByCriteria: byCriteria,
				JudgeTotals:     judgeTotals,
			})
		}
		categories = append(categories, CategoryResults{Category: group.Category, Entries: entries})
	}

	activity, err := s.Store.FetchJudgeActivity(eventID)
	if err != nil {
		logger.Error.Printf("Judge activity fetch failed for event %d: %v", eventID, err)
	}

	return &EventResults{
		Event:         ev,
		Criteria:      criteria,
		Judges:        judges,
		Categories:    categories,
		JudgeActivity: activity,
	}, nil
}

type EventStandings struct {
	Event      models.Event            `json:"event"`
	Categories []scoring.CategoryGroup `json:"categories"`
}

// Overview lists standings across every active event the identity may
// administer.
func (s *Service) Overview(id access.Identity) ([]EventStandings, error) {
	if !id.IsAdmin() {
		return nil, &access.DeniedError{Reason: access.ReasonUnauthorized}
	}

	events, err := s.Store.ListActiveEvents()
	if err != nil {
		return nil, err
	}

	var standings []EventStandings
	for _, ev := range events {
		if !id.CanManage(ev.ID) {
			continue
		}

		criteria, err := s.Store.ListCriteria(ev.ID)
		if err != nil {
			return nil, err
		}
		participants, err := s.Store.ListParticipants(ev.ID)
		if err != nil {
			return nil, err
		}
		ix := scoring.NewMarkIndex(s.loadMarks(store.MarkFilter{EventID: ev.ID}))

		categories := s.Engine.Categorize(participants)
		for i := range categories {
			categories[i].Teams = s.Engine.ScoreTeams(categories[i].Teams, criteria, ix, ev.Rounds)
			s.warnStrays(ev.ID, categories[i].Teams)
		}

		standings = append(standings, EventStandings{Event: ev, Categories: categories})
	}

	return standings, nil
}

// warnStrays surfaces mark rows sitting on non-counted members of
// team-marked teams. They never enter totals; silently ignoring them would
// hide a data-integrity gap.
func (s *Service) warnStrays(eventID int64, teams []scoring.Team) {
	for _, team := range teams {
		if team.StrayMarks > 0 {
			logger.Info.Printf(
				"WARN: event %d team %s has %d mark row(s) on non-counted members, excluded from totals",
				eventID, team.TeamID, team.StrayMarks,
			)
		}
	}
}

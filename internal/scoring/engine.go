package scoring

import (
	"sort"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type TieBreak string

const (
	// TieShareRank gives equal totals the same rank and the next distinct
	// total the next rank value: totals [30, 30, 20] rank as [1, 1, 2].
	TieShareRank TieBreak = "share_rank"
	// TieDenseIndex ranks by sorted position only: [30, 30, 20] -> [1, 2, 3].
	TieDenseIndex TieBreak = "dense_index"
)

// Engine computes team totals, per-judge breakdowns and rankings from raw
// mark rows. A zero stored mark and an absent mark both contribute zero;
// the engine never distinguishes "0 awarded" from "not yet marked".
type Engine struct {
	TieBreak        TieBreak
	DefaultCategory string
}

func NewEngine(tieBreak TieBreak, defaultCategory string) *Engine {
	if tieBreak != TieDenseIndex {
		tieBreak = TieShareRank
	}
	if defaultCategory == "" {
		defaultCategory = "General Category"
	}
	return &Engine{
		TieBreak:        tieBreak,
		DefaultCategory: defaultCategory,
	}
}

type cellKey struct {
	participant int64
	criterion   int64
	round       int
}

type judgeCellKey struct {
	judge int64
	cell  cellKey
}

// MarkIndex holds mark rows keyed for cell lookups. Cell sums values across
// all judges present in the input; callers wanting a single judge's view
// filter the rows before indexing or use JudgeCell.
type MarkIndex struct {
	cells  map[cellKey]int
	rows   map[cellKey]int
	judges map[judgeCellKey]int
}

func NewMarkIndex(marks []models.Mark) *MarkIndex {
	ix := &MarkIndex{
		cells:  make(map[cellKey]int, len(marks)),
		rows:   make(map[cellKey]int, len(marks)),
		judges: make(map[judgeCellKey]int, len(marks)),
	}
	for _, m := range marks {
		cell := cellKey{m.ParticipantID, m.CriteriaID, m.RoundNumber}
		ix.cells[cell] += m.MarksObtained
		ix.rows[cell]++
		ix.judges[judgeCellKey{m.JudgeID, cell}] += m.MarksObtained
	}
	return ix
}

func (ix *MarkIndex) Cell(participantID, criterionID int64, round int) int {
	return ix.cells[cellKey{participantID, criterionID, round}]
}

func (ix *MarkIndex) JudgeCell(judgeID, participantID, criterionID int64, round int) int {
	return ix.judges[judgeCellKey{judgeID, cellKey{participantID, criterionID, round}}]
}

// rowCount reports how many stored rows back a cell, regardless of value.
func (ix *MarkIndex) rowCount(participantID, criterionID int64, round int) int {
	return ix.rows[cellKey{participantID, criterionID, round}]
}

// Team is a scoring unit: every participant sharing a team_id within one
// category. For team-marked teams only the first participant's rows count
// towards the total; rows on other members are tallied as StrayMarks.
type Team struct {
	TeamID       string               `json:"team_id"`
	SchoolCode   string               `json:"school_code"`
	Participants []models.Participant `json:"participants"`
	SoloMarking  bool                 `json:"solo_marking"`
	TotalMarks   int                  `json:"total_marks"`
	Rank         int                  `json:"rank"`
	StrayMarks   int                  `json:"-"`
}

// BuildTeams groups participants by team_id preserving first-seen order.
func BuildTeams(participants []models.Participant) []Team {
	var teams []Team
	byID := make(map[string]int)
	for _, p := range participants {
		if i, ok := byID[p.TeamID]; ok {
			teams[i].Participants = append(teams[i].Participants, p)
			continue
		}
		byID[p.TeamID] = len(teams)
		teams = append(teams, Team{
			TeamID:       p.TeamID,
			SchoolCode:   p.SchoolCode,
			Participants: []models.Participant{p},
			SoloMarking:  p.SoloMarking,
		})
	}
	return teams
}

// TeamTotal sums marks over every criterion and round 1..rounds. Solo-marked
// teams sum every member; team-marked teams sum the first member only.
// Missing cells contribute zero.
func (e *Engine) TeamTotal(team Team, criteria []models.Criterion, ix *MarkIndex, rounds int) int {
	total := 0
	for round := 1; round <= rounds; round++ {
		for _, c := range criteria {
			if team.SoloMarking {
				for _, p := range team.Participants {
					total += ix.Cell(p.ID, c.ID, round)
				}
			} else if len(team.Participants) > 0 {
				total += ix.Cell(team.Participants[0].ID, c.ID, round)
			}
		}
	}
	return total
}

// StrayMarkCount counts stored rows on non-first members of a team-marked
// team. Those rows never enter the total, but their existence is a
// data-integrity signal worth surfacing.
func (e *Engine) StrayMarkCount(team Team, criteria []models.Criterion, ix *MarkIndex, rounds int) int {
	if team.SoloMarking || len(team.Participants) < 2 {
		return 0
	}
	count := 0
	for _, p := range team.Participants[1:] {
		for round := 1; round <= rounds; round++ {
			for _, c := range criteria {
				count += ix.rowCount(p.ID, c.ID, round)
			}
		}
	}
	return count
}

// ScoreTeams fills totals and stray counts for every team, then ranks them.
func (e *Engine) ScoreTeams(teams []Team, criteria []models.Criterion, ix *MarkIndex, rounds int) []Team {
	for i := range teams {
		teams[i].TotalMarks = e.TeamTotal(teams[i], criteria, ix, rounds)
		teams[i].StrayMarks = e.StrayMarkCount(teams[i], criteria, ix, rounds)
	}
	e.Rank(teams)
	return teams
}

// Rank sorts teams by total descending (stable, so equal totals keep their
// load order) and assigns ranks per the configured tie policy.
func (e *Engine) Rank(teams []Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].TotalMarks > teams[j].TotalMarks
	})
	for i := range teams {
		switch {
		case e.TieBreak == TieDenseIndex:
			teams[i].Rank = i + 1
		case i == 0:
			teams[i].Rank = 1
		case teams[i].TotalMarks == teams[i-1].TotalMarks:
			teams[i].Rank = teams[i-1].Rank
		default:
			teams[i].Rank = teams[i-1].Rank + 1
		}
	}
}

// CriterionTotals sums one participant's marks per criterion across rounds,
// returning the per-criterion map and the grand total.
func (e *Engine) CriterionTotals(participantID int64, criteria []models.Criterion, ix *MarkIndex, rounds int) (map[int64]int, int) {
	perCriterion := make(map[int64]int, len(criteria))
	total := 0
	for _, c := range criteria {
		sum := 0
		for round := 1; round <= rounds; round++ {
			sum += ix.Cell(participantID, c.ID, round)
		}
		perCriterion[c.ID] = sum
		total += sum
	}
	return perCriterion, total
}

// JudgeBreakdown partitions a participant's marks by judge: judge id ->
// criterion id -> sum across rounds. Judges with no rows map to zeroed
// criterion sums.
func (e *Engine) JudgeBreakdown(participantID int64, judges []models.Judge, criteria []models.Criterion, ix *MarkIndex, rounds int) map[int64]map[int64]int {
	breakdown := make(map[int64]map[int64]int, len(judges))
	for _, j := range judges {
		perCriterion := make(map[int64]int, len(criteria))
		for _, c := range criteria {
			sum := 0
			for round := 1; round <= rounds; round++ {
				sum += ix.JudgeCell(j.ID, participantID, c.ID, round)
			}
			perCriterion[c.ID] = sum
		}
		breakdown[j.ID] = perCriterion
	}
	return breakdown
}

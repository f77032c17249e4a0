package models

import (
	"github.com/go-playground/validator/v10"
)

type Criterion struct {
	ID           int64  `db:"id" json:"id"`
	EventID      int64  `db:"event_id" json:"event_id" validate:"required"`
	CriteriaName string `db:"criteria_name" json:"criteria_name" validate:"required"`
	MaxMarks     int    `db:"max_marks" json:"max_marks" validate:"required,min=1"`
}

// Mark is one judge's score for one participant on one criterion in one
// round. The (event, participant, criterion, round, judge) tuple is unique;
// re-submission overwrites, it never accumulates.
type Mark struct {
	ID            int64 `db:"id" json:"id"`
	EventID       int64 `db:"event_id" json:"event_id" validate:"required"`
	ParticipantID int64 `db:"participant_id" json:"participant_id" validate:"required"`
	CriteriaID    int64 `db:"criteria_id" json:"criteria_id" validate:"required"`
	RoundNumber   int   `db:"round_number" json:"round_number" validate:"required,min=1"`
	MarksObtained int   `db:"marks_obtained" json:"marks_obtained" validate:"min=0"`
	JudgeID       int64 `db:"judge_id" json:"judge_id"`
}

func (m *Mark) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}

func (c *Criterion) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

package models

// Participant is one scored person. Participants sharing (event_id, team_id)
// within a category form a team; solo_marking decides whether every member is
// scored individually or only the first member carries the team's marks.
type Participant struct {
	ID            int64   `db:"id" json:"id"`
	EventID       int64   `db:"event_id" json:"event_id" validate:"required"`
	Name          string  `db:"name" json:"name" validate:"required"`
	SchoolCode    string  `db:"school_code" json:"school_code"`
	TeamID        string  `db:"team_id" json:"team_id" validate:"required"`
	SoloMarking   bool    `db:"solo_marking" json:"solo_marking"`
	Class         *string `db:"class" json:"class,omitempty"`
	ScholarNumber *string `db:"scholar_number" json:"scholar_number,omitempty"`
	Category      *string `db:"category" json:"category,omitempty"`
}

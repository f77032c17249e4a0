package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// MarkFilter narrows a marks read. EventID is mandatory; ParticipantIDs and
// JudgeID are optional (nil JudgeID means all judges).
type MarkFilter struct {
	EventID        int64
	ParticipantIDs []int64
	JudgeID        *int64
}

// JudgeActivity is one judge's footprint on an event, computed in SQL for
// the results surfaces.
type JudgeActivity struct {
	JudgeID      int64  `db:"judge_id"`
	JudgeName    string `db:"judge_name"`
	MarkCount    int64  `db:"mark_count"`
	Participants int64  `db:"participants"`
	TotalAwarded int64  `db:"total_awarded"`
}

package model

// Stage is a step of the per-competition ingestion state machine. Stages
// are ordered; a later stage implies every earlier one completed.
type Stage int

// Ingestion stages.
const (
	StageStart Stage = iota
	StageCompetitionUpserted
	StageJudgesUpserted
	StageParticipantsUpserted
	StageRoundsProcessed
	StageDone
	// StageFailed is terminal; the report records the stage it failed at.
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageCompetitionUpserted:
		return "competition_upserted"
	case StageJudgesUpserted:
		return "judges_upserted"
	case StageParticipantsUpserted:
		return "participants_upserted"
	case StageRoundsProcessed:
		return "rounds_processed"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the stage name in JSON reports.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Reached reports whether s is at or past want. Failed reaches nothing.
func (s Stage) Reached(want Stage) bool {
	return s != StageFailed && s >= want
}

package repository

// Kind identifies an entity table.
type Kind string

// Entity kinds of the normalized model.
const (
	KindCompetition       Kind = "competition"
	KindJudge             Kind = "judge"
	KindJudgeAssignment   Kind = "judge_assignment"
	KindClub              Kind = "club"
	KindCouple            Kind = "couple"
	KindParticipantResult Kind = "participant_result"
	KindCompetitionMarks  Kind = "competition_marks"
	KindRound             Kind = "round"
	KindRoundMark         Kind = "round_mark"
	KindJudgeMark         Kind = "judge_mark"
)

// Kinds lists every entity kind in dependency order.
var Kinds = []Kind{
	KindCompetition,
	KindJudge,
	KindJudgeAssignment,
	KindClub,
	KindCouple,
	KindParticipantResult,
	KindCompetitionMarks,
	KindRound,
	KindRoundMark,
	KindJudgeMark,
}

// Column names shared by both store implementations.
const (
	ColID = "id"

	// competitions
	ColTitle                   = "title"
	ColLocation                = "location"
	ColDate                    = "date"
	ColDateText                = "date_text"
	ColOrganizer               = "organizer"
	ColOrganizerRepresentative = "organizer_representative"
	ColType                    = "type"
	ColParticipantCount        = "participant_count"
	ColCommissioner            = "commissioner"
	ColSupervisor              = "supervisor"
	ColAnnouncer               = "announcer"
	ColCounters                = "counters"
	ColIngestStage             = "ingest_stage"

	// judges, clubs, couples
	ColName    = "name"
	ColNameKey = "name_key"
	ColLink    = "link"
	ColClubKey = "club_key"
	ColClubID  = "club_id"

	// judge_assignments
	ColCompetitionID = "competition_id"
	ColLetter        = "letter"
	ColJudgeID       = "judge_id"

	// participant_results
	ColNumber      = "number"
	ColCoupleID    = "couple_id"
	ColPosition    = "position"
	ColPlacement   = "placement"
	ColSection     = "section"
	ColProfileLink = "profile_link"

	// rounds
	ColCompetitionMarksID = "competition_marks_id"
	ColOrder              = "round_order"
	ColRank               = "rank"

	// round_marks
	ColRoundID           = "round_id"
	ColParticipantNumber = "participant_number"
	ColDance             = "dance"
	ColTotalScoreText    = "total_score_text"
	ColTotalScore        = "total_score"
	ColPlacementText     = "placement_text"
	ColAdvancement       = "advancement"

	// judge_marks
	ColRoundMarkID       = "round_mark_id"
	ColJudgeAssignmentID = "judge_assignment_id"
	ColMark              = "mark"
)

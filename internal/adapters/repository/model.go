package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Competition is keyed by the scraper's external id.
type Competition struct {
	ID                      int64 `gorm:"primaryKey;autoIncrement:false"`
	Title                   string
	Location                string
	Date                    *time.Time
	DateText                string
	Organizer               string
	OrganizerRepresentative string
	Type                    string
	ParticipantCount        *int
	Commissioner            string
	Supervisor              string
	Announcer               string
	Counters                string
	IngestStage             int
}

func (Competition) TableName() string { return "competitions" }

type Judge struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	NameKey  string `gorm:"not null;uniqueIndex"`
	Location string
	Link     string
}

func (Judge) TableName() string { return "judges" }

// JudgeAssignment binds a judge to one letter within one competition.
type JudgeAssignment struct {
	ID            int64  `gorm:"primaryKey"`
	CompetitionID int64  `gorm:"not null;uniqueIndex:idx_assignment_letter"`
	Letter        string `gorm:"not null;uniqueIndex:idx_assignment_letter"`
	JudgeID       int64  `gorm:"not null;index"`
}

func (JudgeAssignment) TableName() string { return "judge_assignments" }

type Club struct {
	ID      int64  `gorm:"primaryKey"`
	Name    string `gorm:"not null"`
	NameKey string `gorm:"not null;uniqueIndex"`
}

func (Club) TableName() string { return "clubs" }

// Couple is unique on (name_key, club_key); club_key is empty under name-only identity.
type Couple struct {
	ID      int64  `gorm:"primaryKey"`
	Name    string `gorm:"not null"`
	NameKey string `gorm:"not null;uniqueIndex:idx_couple_key"`
	ClubKey string `gorm:"not null;uniqueIndex:idx_couple_key"`
	ClubID  *int64
}

func (Couple) TableName() string { return "couples" }

type ParticipantResult struct {
	ID            int64  `gorm:"primaryKey"`
	CompetitionID int64  `gorm:"not null;uniqueIndex:idx_participant_number"`
	Number        string `gorm:"not null;uniqueIndex:idx_participant_number"`
	CoupleID      int64  `gorm:"not null;index"`
	ClubID        *int64
	Position      string
	Placement     *int
	Section       string
	ProfileLink   string
}

func (ParticipantResult) TableName() string { return "participant_results" }

// CompetitionMarks is the parent of a competition's rounds.
type CompetitionMarks struct {
	ID            int64 `gorm:"primaryKey"`
	CompetitionID int64 `gorm:"not null;uniqueIndex"`
	Title         string
}

func (CompetitionMarks) TableName() string { return "competition_marks" }

type Round struct {
	ID                 int64  `gorm:"primaryKey"`
	CompetitionMarksID int64  `gorm:"not null;uniqueIndex:idx_round_title"`
	CompetitionID      int64  `gorm:"not null;index"`
	Title              string `gorm:"not null;uniqueIndex:idx_round_title"`
	Order              int    `gorm:"column:round_order"`
	Rank               *int
}

func (Round) TableName() string { return "rounds" }

type RoundMark struct {
	ID                int64  `gorm:"primaryKey"`
	RoundID           int64  `gorm:"not null;uniqueIndex:idx_round_mark"`
	ParticipantNumber string `gorm:"not null;uniqueIndex:idx_round_mark"`
	Dance             string `gorm:"not null;uniqueIndex:idx_round_mark"`
	CompetitionID     int64  `gorm:"not null;index"`
	TotalScoreText    string
	TotalScore        decimal.NullDecimal `gorm:"type:numeric"`
	PlacementText     string
	Placement         *int
	Advancement       string
}

func (RoundMark) TableName() string { return "round_marks" }

type JudgeMark struct {
	ID                int64  `gorm:"primaryKey"`
	RoundMarkID       int64  `gorm:"not null;uniqueIndex:idx_judge_mark"`
	JudgeAssignmentID int64  `gorm:"not null;uniqueIndex:idx_judge_mark;index"`
	Mark              string `gorm:"not null"`
}

func (JudgeMark) TableName() string { return "judge_marks" }

var modelFactories = map[Kind]func() any{
	KindCompetition:       func() any { return &Competition{} },
	KindJudge:             func() any { return &Judge{} },
	KindJudgeAssignment:   func() any { return &JudgeAssignment{} },
	KindClub:              func() any { return &Club{} },
	KindCouple:            func() any { return &Couple{} },
	KindParticipantResult: func() any { return &ParticipantResult{} },
	KindCompetitionMarks:  func() any { return &CompetitionMarks{} },
	KindRound:             func() any { return &Round{} },
	KindRoundMark:         func() any { return &RoundMark{} },
	KindJudgeMark:         func() any { return &JudgeMark{} },
}

func models() []any {
	out := make([]any, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, modelFactories[k]())
	}
	return out
}

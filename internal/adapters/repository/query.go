package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AssignedJudge is a judge as seated in one competition.
type AssignedJudge struct {
	AssignmentID int64  `json:"assignment_id"`
	Letter       string `json:"letter"`
	JudgeID      int64  `json:"judge_id"`
	Name         string `json:"name"`
	Location     string `json:"location,omitempty"`
	Link         string `json:"link,omitempty"`
}

// GivenMark is one judge mark joined with the judge that gave it.
type GivenMark struct {
	RoundMarkID int64  `json:"-"`
	Letter      string `json:"letter"`
	JudgeID     int64  `json:"judge_id"`
	JudgeName   string `json:"judge_name"`
	Mark        string `json:"mark"`
}

// RoundMarkDetail is a round mark with its per-judge marks.
type RoundMarkDetail struct {
	RoundMark
	Marks []GivenMark
}

// JudgeMarkRow is one mark a judge gave, located by competition and round.
type JudgeMarkRow struct {
	CompetitionID     int64  `json:"competition_id"`
	RoundID           int64  `json:"round_id"`
	RoundTitle        string `json:"round_title"`
	ParticipantNumber string `json:"participant_number"`
	Dance             string `json:"dance"`
	Letter            string `json:"letter"`
	Mark              string `json:"mark"`
}

// ParticipantDetail is a participant result with its couple and club names.
type ParticipantDetail struct {
	ParticipantResult
	CoupleName string
	ClubName   string
	// RoundTitles are the rounds the participant was marked in.
	RoundTitles []string
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storeErr(fmt.Errorf("%s: %w", what, err))
}

// Competition loads one competition by external id.
func (s *GormStore) Competition(ctx context.Context, id int64) (Competition, error) {
	var c Competition
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return Competition{}, notFound(err, fmt.Sprintf("competition %d", id))
	}
	return c, nil
}

// CompetitionJudges lists the judges seated in a competition, by letter.
func (s *GormStore) CompetitionJudges(ctx context.Context, competitionID int64) ([]AssignedJudge, error) {
	var out []AssignedJudge
	err := s.db.WithContext(ctx).
		Table("judge_assignments AS a").
		Select("a.id AS assignment_id, a.letter, a.judge_id, j.name, j.location, j.link").
		Joins("JOIN judges j ON j.id = a.judge_id").
		Where("a.competition_id = ?", competitionID).
		Order("a.letter").
		Scan(&out).Error
	if err != nil {
		return nil, storeErr(fmt.Errorf("competition judges: %w", err))
	}
	return out, nil
}

// Rounds lists a competition's rounds in order.
func (s *GormStore) Rounds(ctx context.Context, competitionID int64) ([]Round, error) {
	var out []Round
	err := s.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order(ColOrder).
		Find(&out).Error
	if err != nil {
		return nil, storeErr(fmt.Errorf("rounds: %w", err))
	}
	return out, nil
}

// Round loads one round.
func (s *GormStore) Round(ctx context.Context, id int64) (Round, error) {
	var r Round
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return Round{}, notFound(err, fmt.Sprintf("round %d", id))
	}
	return r, nil
}

// RoundMarks lists a round's marks with the judge marks attached.
func (s *GormStore) RoundMarks(ctx context.Context, roundID int64) ([]RoundMarkDetail, error) {
	db := s.db.WithContext(ctx)
	var marks []RoundMark
	if err := db.Where("round_id = ?", roundID).Order("participant_number, dance").Find(&marks).Error; err != nil {
		return nil, storeErr(fmt.Errorf("round marks: %w", err))
	}
	if len(marks) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(marks))
	for i, m := range marks {
		ids[i] = m.ID
	}
	var given []GivenMark
	err := db.Table("judge_marks AS m").
		Select("m.round_mark_id, a.letter, a.judge_id, j.name AS judge_name, m.mark").
		Joins("JOIN judge_assignments a ON a.id = m.judge_assignment_id").
		Joins("JOIN judges j ON j.id = a.judge_id").
		Where("m.round_mark_id IN ?", ids).
		Order("a.letter").
		Scan(&given).Error
	if err != nil {
		return nil, storeErr(fmt.Errorf("judge marks: %w", err))
	}
	byMark := make(map[int64][]GivenMark, len(marks))
	for _, g := range given {
		byMark[g.RoundMarkID] = append(byMark[g.RoundMarkID], g)
	}
	out := make([]RoundMarkDetail, len(marks))
	for i, m := range marks {
		out[i] = RoundMarkDetail{RoundMark: m, Marks: byMark[m.ID]}
	}
	return out, nil
}

// JudgeMarks lists every mark a judge gave across competitions.
func (s *GormStore) JudgeMarks(ctx context.Context, judgeID int64) ([]JudgeMarkRow, error) {
	var out []JudgeMarkRow
	err := s.db.WithContext(ctx).
		Table("judge_marks AS m").
		Select("a.competition_id, rm.round_id, r.title AS round_title, rm.participant_number, rm.dance, a.letter, m.mark").
		Joins("JOIN judge_assignments a ON a.id = m.judge_assignment_id").
		Joins("JOIN round_marks rm ON rm.id = m.round_mark_id").
		Joins("JOIN rounds r ON r.id = rm.round_id").
		Where("a.judge_id = ?", judgeID).
		Order("a.competition_id, r.round_order, rm.participant_number, rm.dance").
		Scan(&out).Error
	if err != nil {
		return nil, storeErr(fmt.Errorf("judge marks: %w", err))
	}
	return out, nil
}

// Participant loads a participant result by competition and start number.
func (s *GormStore) Participant(ctx context.Context, competitionID int64, number string) (ParticipantDetail, error) {
	db := s.db.WithContext(ctx)
	var pr ParticipantResult
	err := db.Where("competition_id = ? AND number = ?", competitionID, number).First(&pr).Error
	if err != nil {
		return ParticipantDetail{}, notFound(err, fmt.Sprintf("participant %d/%s", competitionID, number))
	}
	d := ParticipantDetail{ParticipantResult: pr}

	var couple Couple
	if err := db.First(&couple, pr.CoupleID).Error; err == nil {
		d.CoupleName = couple.Name
	}
	if pr.ClubID != nil {
		var club Club
		if err := db.First(&club, *pr.ClubID).Error; err == nil {
			d.ClubName = club.Name
		}
	}

	err = db.Table("round_marks AS rm").
		Joins("JOIN rounds r ON r.id = rm.round_id").
		Where("rm.competition_id = ? AND rm.participant_number = ?", competitionID, number).
		Distinct().
		Order("r.title").
		Pluck("r.title", &d.RoundTitles).Error
	if err != nil {
		return ParticipantDetail{}, storeErr(fmt.Errorf("participant rounds: %w", err))
	}
	return d, nil
}

// Counts returns the row count of every entity kind.
func (s *GormStore) Counts(ctx context.Context) (map[Kind]int64, error) {
	out := make(map[Kind]int64, len(Kinds))
	for _, k := range Kinds {
		model, _ := newModel(k)
		var n int64
		if err := s.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, storeErr(fmt.Errorf("count %s: %w", k, err))
		}
		out[k] = n
	}
	return out, nil
}

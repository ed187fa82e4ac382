package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/markcodec"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/shopspring/decimal"
)

// CompetitionInput is the typed metadata of one competition. Nil pointers
// are fields whose raw text could not be parsed.
type CompetitionInput struct {
	ID                      model.CompetitionID
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
	Counters                []string
}

// UpsertCompetition creates or refreshes a competition. The stored ingest
// stage is only set on creation.
func (r *Reconciler) UpsertCompetition(ctx context.Context, in CompetitionInput) (repository.Handle, error) {
	key := repository.NewKey(repository.KindCompetition, repository.ColID, int64(in.ID))
	create := repository.Fields{repository.ColIngestStage: int64(model.StageStart)}
	var date any
	if in.Date != nil {
		date = *in.Date
	}
	update := repository.Fields{
		repository.ColTitle:                   in.Title,
		repository.ColLocation:                in.Location,
		repository.ColDate:                    date,
		repository.ColDateText:                in.DateText,
		repository.ColOrganizer:               in.Organizer,
		repository.ColOrganizerRepresentative: in.OrganizerRepresentative,
		repository.ColType:                    in.Type,
		repository.ColParticipantCount:        in.ParticipantCount,
		repository.ColCommissioner:            in.Commissioner,
		repository.ColSupervisor:              in.Supervisor,
		repository.ColAnnouncer:               in.Announcer,
		repository.ColCounters:                strings.Join(in.Counters, "\n"),
	}
	return r.Upsert(ctx, key, create, update)
}

// CompetitionStage returns the stored ingest stage of a competition. ok is
// false when the competition was never stored.
func (r *Reconciler) CompetitionStage(ctx context.Context, id model.CompetitionID) (model.Stage, bool, error) {
	rec, err := r.FindUnique(ctx, repository.NewKey(repository.KindCompetition, repository.ColID, int64(id)))
	if errors.Is(err, repository.ErrNotFound) {
		return model.StageStart, false, nil
	}
	if err != nil {
		return model.StageStart, false, err
	}
	v, _ := rec.Int64(repository.ColIngestStage)
	return model.Stage(v), true, nil
}

// AdvanceStage stores stage on the competition unless it already recorded a
// later one. Failed is never stored.
func (r *Reconciler) AdvanceStage(ctx context.Context, id model.CompetitionID, stage model.Stage) error {
	if stage == model.StageFailed {
		return nil
	}
	cur, ok, err := r.CompetitionStage(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: competition %s", ErrMissingPrerequisite, id)
	}
	if cur >= stage {
		return nil
	}
	key := repository.NewKey(repository.KindCompetition, repository.ColID, int64(id))
	_, err = r.Upsert(ctx, key, nil, repository.Fields{repository.ColIngestStage: int64(stage)})
	return err
}

// UpsertJudge dedups a judge by folded name. Location and link refresh on
// every call; the display name is kept from the first sighting.
func (r *Reconciler) UpsertJudge(ctx context.Context, name model.NameKey, location, link string) (repository.Handle, error) {
	if name.IsZero() {
		return 0, fmt.Errorf("%w: empty judge name", ErrInvalidKey)
	}
	key := repository.NewKey(repository.KindJudge, repository.ColNameKey, name.Key())
	create := repository.Fields{repository.ColName: name.Display()}
	update := repository.Fields{
		repository.ColLocation: strings.TrimSpace(location),
		repository.ColLink:     strings.TrimSpace(link),
	}
	return r.Upsert(ctx, key, create, update)
}

// UpsertAssignment seats judge under letter in a competition.
func (r *Reconciler) UpsertAssignment(ctx context.Context, id model.CompetitionID, letter rune, judge repository.Handle) (repository.Handle, error) {
	key := repository.NewKey(repository.KindJudgeAssignment,
		repository.ColCompetitionID, int64(id),
		repository.ColLetter, string(letter))
	return r.Upsert(ctx, key, nil, repository.Fields{repository.ColJudgeID: int64(judge)})
}

// Assignments returns the letter to assignment map of a competition.
func (r *Reconciler) Assignments(ctx context.Context, id model.CompetitionID) (map[rune]repository.Handle, error) {
	recs, err := r.List(ctx, repository.KindJudgeAssignment, repository.Fields{repository.ColCompetitionID: int64(id)})
	if err != nil {
		return nil, err
	}
	out := make(map[rune]repository.Handle, len(recs))
	for _, rec := range recs {
		if letter, ok := model.NormalizeLetter(rec.String(repository.ColLetter)); ok {
			out[letter] = rec.Handle
		}
	}
	return out, nil
}

// UpsertClub dedups a club by folded name.
func (r *Reconciler) UpsertClub(ctx context.Context, name model.NameKey) (repository.Handle, error) {
	if name.IsZero() {
		return 0, fmt.Errorf("%w: empty club name", ErrInvalidKey)
	}
	key := repository.NewKey(repository.KindClub, repository.ColNameKey, name.Key())
	return r.Upsert(ctx, key, repository.Fields{repository.ColName: name.Display()}, nil)
}

// CoupleKey builds a couple key under the configured policy.
func (r *Reconciler) CoupleKey(name, club string) model.CoupleKey {
	return model.NewCoupleKey(name, club, r.couples == CoupleByNameClub)
}

// UpsertCouple dedups a couple. club is nil when the couple has no club.
func (r *Reconciler) UpsertCouple(ctx context.Context, k model.CoupleKey, club *repository.Handle) (repository.Handle, error) {
	if k.Name.IsZero() {
		return 0, fmt.Errorf("%w: empty couple name", ErrInvalidKey)
	}
	key := repository.NewKey(repository.KindCouple,
		repository.ColNameKey, k.Name.Key(),
		repository.ColClubKey, k.Club)
	var update repository.Fields
	if club != nil {
		update = repository.Fields{repository.ColClubID: int64(*club)}
	}
	return r.Upsert(ctx, key, repository.Fields{repository.ColName: k.Name.Display()}, update)
}

// ParticipantInput is one participant result row.
type ParticipantInput struct {
	CompetitionID model.CompetitionID
	Number        string
	Couple        repository.Handle
	Club          *repository.Handle
	Position      string
	Placement     *int
	Section       string
	ProfileLink   string
}

// UpsertParticipant creates or refreshes a participant result.
func (r *Reconciler) UpsertParticipant(ctx context.Context, in ParticipantInput) (repository.Handle, error) {
	number := model.NormalizeNumber(in.Number)
	if number == "" {
		return 0, fmt.Errorf("%w: empty start number", ErrInvalidKey)
	}
	key := participantKey(in.CompetitionID, number)
	update := repository.Fields{
		repository.ColCoupleID:    int64(in.Couple),
		repository.ColClubID:      optionalHandle(in.Club),
		repository.ColPosition:    strings.TrimSpace(in.Position),
		repository.ColPlacement:   in.Placement,
		repository.ColSection:     strings.TrimSpace(in.Section),
		repository.ColProfileLink: strings.TrimSpace(in.ProfileLink),
	}
	return r.Upsert(ctx, key, nil, update)
}

// RequireParticipant returns the participant result for a start number, or
// an error wrapping ErrMissingPrerequisite when there is none.
func (r *Reconciler) RequireParticipant(ctx context.Context, id model.CompetitionID, number string) (repository.Record, error) {
	rec, err := r.FindUnique(ctx, participantKey(id, model.NormalizeNumber(number)))
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Record{}, fmt.Errorf("%w: participant %q in competition %s", ErrMissingPrerequisite, number, id)
	}
	return rec, err
}

func participantKey(id model.CompetitionID, number string) repository.Key {
	return repository.NewKey(repository.KindParticipantResult,
		repository.ColCompetitionID, int64(id),
		repository.ColNumber, number)
}

// UpsertCompetitionMarks creates the marks parent of a competition.
func (r *Reconciler) UpsertCompetitionMarks(ctx context.Context, id model.CompetitionID, title string) (repository.Handle, error) {
	key := repository.NewKey(repository.KindCompetitionMarks, repository.ColCompetitionID, int64(id))
	return r.Upsert(ctx, key, nil, repository.Fields{repository.ColTitle: strings.TrimSpace(title)})
}

// RoundInput is one scored round.
type RoundInput struct {
	Marks         repository.Handle
	CompetitionID model.CompetitionID
	Title         string
	Order         int
	Rank          hierarchy.Rank
}

// UpsertRound creates or refreshes a round, keyed by title within its competition.
func (r *Reconciler) UpsertRound(ctx context.Context, in RoundInput) (repository.Handle, error) {
	key := repository.NewKey(repository.KindRound,
		repository.ColCompetitionMarksID, int64(in.Marks),
		repository.ColTitle, in.Title)
	var rank *int
	if v, ok := in.Rank.Value(); ok {
		rank = &v
	}
	update := repository.Fields{
		repository.ColCompetitionID: int64(in.CompetitionID),
		repository.ColOrder:         int64(in.Order),
		repository.ColRank:          rank,
	}
	return r.Upsert(ctx, key, nil, update)
}

// RoundMarkInput is the aggregate outcome of one participant's dance in one round.
type RoundMarkInput struct {
	Round             repository.Handle
	CompetitionID     model.CompetitionID
	ParticipantNumber string
	Dance             string
	TotalScoreText    string
	TotalScore        decimal.NullDecimal
	PlacementText     string
	Placement         *int
	Advancement       string
}

// UpsertRoundMark creates or refreshes a round mark.
func (r *Reconciler) UpsertRoundMark(ctx context.Context, in RoundMarkInput) (repository.Handle, error) {
	key := repository.NewKey(repository.KindRoundMark,
		repository.ColRoundID, int64(in.Round),
		repository.ColParticipantNumber, model.NormalizeNumber(in.ParticipantNumber),
		repository.ColDance, in.Dance)
	update := repository.Fields{
		repository.ColCompetitionID:  int64(in.CompetitionID),
		repository.ColTotalScoreText: in.TotalScoreText,
		repository.ColTotalScore:     in.TotalScore,
		repository.ColPlacementText:  in.PlacementText,
		repository.ColPlacement:      in.Placement,
		repository.ColAdvancement:    in.Advancement,
	}
	return r.Upsert(ctx, key, nil, update)
}

// UpsertJudgeMark records the mark one seated judge gave on a round mark.
func (r *Reconciler) UpsertJudgeMark(ctx context.Context, roundMark, assignment repository.Handle, mark markcodec.Mark) (repository.Handle, error) {
	key := repository.NewKey(repository.KindJudgeMark,
		repository.ColRoundMarkID, int64(roundMark),
		repository.ColJudgeAssignmentID, int64(assignment))
	return r.Upsert(ctx, key, nil, repository.Fields{repository.ColMark: string(mark)})
}

func optionalHandle(h *repository.Handle) *int64 {
	if h == nil {
		return nil
	}
	v := int64(*h)
	return &v
}

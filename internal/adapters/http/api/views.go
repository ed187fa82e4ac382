package api

import (
	"strings"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/model"
)

type competitionView struct {
	ID                      int64                      `json:"id"`
	Title                   string                     `json:"title"`
	Location                string                     `json:"location,omitempty"`
	Date                    *time.Time                 `json:"date,omitempty"`
	DateText                string                     `json:"date_text,omitempty"`
	Organizer               string                     `json:"organizer,omitempty"`
	OrganizerRepresentative string                     `json:"organizer_representative,omitempty"`
	Type                    string                     `json:"type,omitempty"`
	ParticipantCount        *int                       `json:"participant_count,omitempty"`
	Commissioner            string                     `json:"commissioner,omitempty"`
	Supervisor              string                     `json:"supervisor,omitempty"`
	Announcer               string                     `json:"announcer,omitempty"`
	Counters                []string                   `json:"counters,omitempty"`
	Stage                   model.Stage                `json:"stage"`
	Judges                  []repository.AssignedJudge `json:"judges"`
	Rounds                  []roundView                `json:"rounds"`
}

func newCompetitionView(c repository.Competition, judges []repository.AssignedJudge, rounds []repository.Round) competitionView {
	v := competitionView{
		ID:                      c.ID,
		Title:                   c.Title,
		Location:                c.Location,
		Date:                    c.Date,
		DateText:                c.DateText,
		Organizer:               c.Organizer,
		OrganizerRepresentative: c.OrganizerRepresentative,
		Type:                    c.Type,
		ParticipantCount:        c.ParticipantCount,
		Commissioner:            c.Commissioner,
		Supervisor:              c.Supervisor,
		Announcer:               c.Announcer,
		Stage:                   model.Stage(c.IngestStage),
		Judges:                  judges,
		Rounds:                  make([]roundView, len(rounds)),
	}
	if c.Counters != "" {
		v.Counters = strings.Split(c.Counters, "\n")
	}
	if v.Judges == nil {
		v.Judges = []repository.AssignedJudge{}
	}
	for i, r := range rounds {
		v.Rounds[i] = newRoundView(r)
	}
	return v
}

type roundView struct {
	ID            int64  `json:"id"`
	CompetitionID int64  `json:"competition_id"`
	Title         string `json:"title"`
	Order         int    `json:"order"`
	Rank          *int   `json:"rank"`
}

func newRoundView(r repository.Round) roundView {
	return roundView{
		ID:            r.ID,
		CompetitionID: r.CompetitionID,
		Title:         r.Title,
		Order:         r.Order,
		Rank:          r.Rank,
	}
}

type roundMarkView struct {
	ParticipantNumber string                 `json:"participant_number"`
	Dance             string                 `json:"dance"`
	TotalScoreText    string                 `json:"total_score_text,omitempty"`
	TotalScore        *string                `json:"total_score,omitempty"`
	PlacementText     string                 `json:"placement_text,omitempty"`
	Placement         *int                   `json:"placement,omitempty"`
	Advancement       string                 `json:"advancement,omitempty"`
	Marks             []repository.GivenMark `json:"marks"`
}

func newRoundMarkView(d repository.RoundMarkDetail) roundMarkView {
	v := roundMarkView{
		ParticipantNumber: d.ParticipantNumber,
		Dance:             d.Dance,
		TotalScoreText:    d.TotalScoreText,
		PlacementText:     d.PlacementText,
		Placement:         d.Placement,
		Advancement:       d.Advancement,
		Marks:             d.Marks,
	}
	if d.TotalScore.Valid {
		s := d.TotalScore.Decimal.String()
		v.TotalScore = &s
	}
	if v.Marks == nil {
		v.Marks = []repository.GivenMark{}
	}
	return v
}

type roundMarksView struct {
	Round roundView       `json:"round"`
	Marks []roundMarkView `json:"marks"`
}

type participantView struct {
	CompetitionID int64    `json:"competition_id"`
	Number        string   `json:"number"`
	Couple        string   `json:"couple"`
	Club          string   `json:"club,omitempty"`
	Position      string   `json:"position,omitempty"`
	Placement     *int     `json:"placement,omitempty"`
	Section       string   `json:"section,omitempty"`
	ProfileLink   string   `json:"profile_link,omitempty"`
	Rounds        []string `json:"rounds"`
}

func newParticipantView(d repository.ParticipantDetail) participantView {
	v := participantView{
		CompetitionID: d.CompetitionID,
		Number:        d.Number,
		Couple:        d.CoupleName,
		Club:          d.ClubName,
		Position:      d.Position,
		Placement:     d.Placement,
		Section:       d.Section,
		ProfileLink:   d.ProfileLink,
		Rounds:        d.RoundTitles,
	}
	if v.Rounds == nil {
		v.Rounds = []string{}
	}
	return v
}

package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/matteohorvath/ksis/internal/domain/reconcile"
	"github.com/matteohorvath/ksis/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestJudges(t *testing.T) {
	Convey("Given a reconciler over an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		r := reconcile.New(store, reconcile.WithTimeout(time.Second))

		Convey("When the same judge is upserted with different spelling", func() {
			h1, err1 := r.UpsertJudge(ctx, model.NewNameKey("Kovács  Péter"), "Budapest", "")
			h2, err2 := r.UpsertJudge(ctx, model.NewNameKey(" KOVÁCS PÉTER "), "Győr", "https://example.org/j/1")

			Convey("Then one row exists with refreshed metadata and the first display name", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(h2, ShouldEqual, h1)
				So(store.Count(repository.KindJudge), ShouldEqual, 1)

				rec, err := r.FindUnique(ctx, repository.NewKey(repository.KindJudge, repository.ColNameKey, model.FoldKey("kovács péter")))
				So(err, ShouldBeNil)
				So(rec.String(repository.ColName), ShouldEqual, "Kovács Péter")
				So(rec.String(repository.ColLocation), ShouldEqual, "Győr")
				So(rec.String(repository.ColLink), ShouldEqual, "https://example.org/j/1")
			})
		})

		Convey("When a judge name is empty", func() {
			_, err := r.UpsertJudge(ctx, model.NewNameKey("   "), "", "")

			Convey("Then the key is rejected", func() {
				So(errors.Is(err, reconcile.ErrInvalidKey), ShouldBeTrue)
				So(store.Count(repository.KindJudge), ShouldEqual, 0)
			})
		})

		Convey("When judges are seated in a competition", func() {
			a, _ := r.UpsertJudge(ctx, model.NewNameKey("Anna"), "", "")
			b, _ := r.UpsertJudge(ctx, model.NewNameKey("Béla"), "", "")
			ha, err := r.UpsertAssignment(ctx, 10, 'A', a)
			So(err, ShouldBeNil)
			hb, err := r.UpsertAssignment(ctx, 10, 'B', b)
			So(err, ShouldBeNil)
			_, err = r.UpsertAssignment(ctx, 11, 'A', b)
			So(err, ShouldBeNil)

			Convey("Then the letter map only holds that competition's seats", func() {
				m, err := r.Assignments(ctx, 10)
				So(err, ShouldBeNil)
				So(m, ShouldResemble, map[rune]repository.Handle{'A': ha, 'B': hb})
			})
		})
	})
}

func TestCompetitionStage(t *testing.T) {
	Convey("Given a stored competition", t, func() {
		ctx := context.Background()
		r := reconcile.New(repository.NewMemoryStore())
		n := 12
		_, err := r.UpsertCompetition(ctx, reconcile.CompetitionInput{ID: 42, Title: "Kupa", ParticipantCount: &n})
		So(err, ShouldBeNil)

		Convey("Then it starts at the first stage", func() {
			s, ok, err := r.CompetitionStage(ctx, 42)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, model.StageStart)
		})

		Convey("When the stage advances and then is set back", func() {
			So(r.AdvanceStage(ctx, 42, model.StageParticipantsUpserted), ShouldBeNil)
			So(r.AdvanceStage(ctx, 42, model.StageJudgesUpserted), ShouldBeNil)
			So(r.AdvanceStage(ctx, 42, model.StageFailed), ShouldBeNil)

			Convey("Then the stored stage never moves backwards", func() {
				s, _, err := r.CompetitionStage(ctx, 42)
				So(err, ShouldBeNil)
				So(s, ShouldEqual, model.StageParticipantsUpserted)
			})
		})

		Convey("When the metadata is upserted again", func() {
			So(r.AdvanceStage(ctx, 42, model.StageDone), ShouldBeNil)
			_, err := r.UpsertCompetition(ctx, reconcile.CompetitionInput{ID: 42, Title: "Kupa 2"})
			So(err, ShouldBeNil)

			Convey("Then the stage survives", func() {
				s, _, _ := r.CompetitionStage(ctx, 42)
				So(s, ShouldEqual, model.StageDone)
			})
		})

		Convey("Then an unknown competition cannot advance", func() {
			err := r.AdvanceStage(ctx, 7, model.StageJudgesUpserted)
			So(errors.Is(err, reconcile.ErrMissingPrerequisite), ShouldBeTrue)
			_, ok, err := r.CompetitionStage(ctx, 7)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCouples(t *testing.T) {
	Convey("Given couples with the same name in different clubs", t, func() {
		ctx := context.Background()

		upsertBoth := func(r *reconcile.Reconciler) (repository.Handle, repository.Handle) {
			c1, _ := r.UpsertClub(ctx, model.NewNameKey("Alfa TSE"))
			c2, _ := r.UpsertClub(ctx, model.NewNameKey("Béta SE"))
			h1, err := r.UpsertCouple(ctx, r.CoupleKey("Nagy Ádám - Kiss Éva", "Alfa TSE"), &c1)
			So(err, ShouldBeNil)
			h2, err := r.UpsertCouple(ctx, r.CoupleKey("Nagy Ádám - Kiss Éva", "Béta SE"), &c2)
			So(err, ShouldBeNil)
			return h1, h2
		}

		Convey("When couples are keyed by name", func() {
			store := repository.NewMemoryStore()
			h1, h2 := upsertBoth(reconcile.New(store))

			Convey("Then they merge", func() {
				So(h1, ShouldEqual, h2)
				So(store.Count(repository.KindCouple), ShouldEqual, 1)
			})
		})

		Convey("When couples are keyed by name and club", func() {
			store := repository.NewMemoryStore()
			h1, h2 := upsertBoth(reconcile.New(store, reconcile.WithCouplePolicy(reconcile.CoupleByNameClub)))

			Convey("Then they stay apart", func() {
				So(h1, ShouldNotEqual, h2)
				So(store.Count(repository.KindCouple), ShouldEqual, 2)
				So(store.Count(repository.KindClub), ShouldEqual, 2)
			})
		})
	})
}

func TestParticipantsAndMarks(t *testing.T) {
	Convey("Given a competition with one participant", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		r := reconcile.New(store)
		couple, _ := r.UpsertCouple(ctx, r.CoupleKey("Nagy Ádám - Kiss Éva", ""), nil)
		placement := 1
		_, err := r.UpsertParticipant(ctx, reconcile.ParticipantInput{
			CompetitionID: 5, Number: " 7. ", Couple: couple, Position: "1.", Placement: &placement,
		})
		So(err, ShouldBeNil)

		Convey("Then the start number is found in normalized form", func() {
			rec, err := r.RequireParticipant(ctx, 5, "7")
			So(err, ShouldBeNil)
			So(rec.String(repository.ColNumber), ShouldEqual, "7")
		})

		Convey("Then a missing number is a missing prerequisite", func() {
			_, err := r.RequireParticipant(ctx, 5, "8")
			So(errors.Is(err, reconcile.ErrMissingPrerequisite), ShouldBeTrue)
			_, err = r.RequireParticipant(ctx, 6, "7")
			So(errors.Is(err, reconcile.ErrMissingPrerequisite), ShouldBeTrue)
		})

		Convey("When a round mark and its judge mark are upserted twice", func() {
			marks, _ := r.UpsertCompetitionMarks(ctx, 5, "Kupa")
			round, err := r.UpsertRound(ctx, reconcile.RoundInput{
				Marks: marks, CompetitionID: 5, Title: "Döntő", Order: 1, Rank: hierarchy.Known(16),
			})
			So(err, ShouldBeNil)
			judge, _ := r.UpsertJudge(ctx, model.NewNameKey("Anna"), "", "")
			seat, _ := r.UpsertAssignment(ctx, 5, 'A', judge)
			for i := 0; i < 2; i++ {
				rm, err := r.UpsertRoundMark(ctx, reconcile.RoundMarkInput{
					Round: round, CompetitionID: 5, ParticipantNumber: "7", Dance: "Samba",
				})
				So(err, ShouldBeNil)
				_, err = r.UpsertJudgeMark(ctx, rm, seat, "1")
				So(err, ShouldBeNil)
			}

			Convey("Then each natural key holds one row", func() {
				So(store.Count(repository.KindRound), ShouldEqual, 1)
				So(store.Count(repository.KindRoundMark), ShouldEqual, 1)
				So(store.Count(repository.KindJudgeMark), ShouldEqual, 1)
				rec, err := r.FindUnique(ctx, repository.NewKey(repository.KindRound,
					repository.ColCompetitionMarksID, marks, repository.ColTitle, "Döntő"))
				So(err, ShouldBeNil)
				rank, ok := rec.Int64(repository.ColRank)
				So(ok, ShouldBeTrue)
				So(rank, ShouldEqual, 16)
			})
		})
	})
}

func TestStoreFailure(t *testing.T) {
	Convey("Given a closed store", t, func() {
		store := repository.NewMemoryStore()
		_ = store.Close()
		r := reconcile.New(store)

		Convey("Then upserts fail as store failures", func() {
			_, err := r.UpsertClub(context.Background(), model.NewNameKey("Alfa"))
			So(err, ShouldNotBeNil)
			So(reconcile.IsStoreFailure(err), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := reconcile.New(repository.NewMemoryStore())

		Convey("Then the call fails without touching data", func() {
			_, err := r.UpsertClub(ctx, model.NewNameKey("Alfa"))
			So(reconcile.IsStoreFailure(err), ShouldBeTrue)
		})
	})

	Convey("A missing row is not a store failure", t, func() {
		r := reconcile.New(repository.NewMemoryStore())
		_, err := r.Find(context.Background(), repository.NewKey(repository.KindClub, repository.ColNameKey, "x"))
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		So(reconcile.IsStoreFailure(err), ShouldBeFalse)
	})
}

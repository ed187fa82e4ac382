package hierarchy_test

import (
	"errors"
	"testing"

	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given a level table", t, func() {
		Convey("When two levels share a rank", func() {
			_, err := hierarchy.New([]hierarchy.Level{
				{Rank: 1, Names: []string{"Elődöntő"}},
				{Rank: 1, Names: []string{"Döntő"}},
			})

			Convey("Then loading fails", func() {
				So(errors.Is(err, hierarchy.ErrDuplicateRank), ShouldBeTrue)
			})
		})

		Convey("When one name is listed under two ranks", func() {
			_, err := hierarchy.New([]hierarchy.Level{
				{Rank: 1, Names: []string{"Final"}},
				{Rank: 2, Names: []string{"FINAL"}},
			})

			Convey("Then loading fails", func() {
				So(errors.Is(err, hierarchy.ErrDuplicateName), ShouldBeTrue)
			})
		})

		Convey("When a level has a blank name", func() {
			_, err := hierarchy.New([]hierarchy.Level{{Rank: 1, Names: []string{"  "}}})
			So(errors.Is(err, hierarchy.ErrEmptyName), ShouldBeTrue)
		})

		Convey("When the table is empty", func() {
			_, err := hierarchy.New(nil)
			So(errors.Is(err, hierarchy.ErrNoLevels), ShouldBeTrue)
		})

		Convey("When the built-in table is loaded", func() {
			So(func() { hierarchy.Default() }, ShouldNotPanic)
			So(hierarchy.Default().Len(), ShouldEqual, len(hierarchy.DefaultLevels()))
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given the default hierarchy", t, func() {
		h := hierarchy.Default()

		Convey("Rounds are ordered from pre-rounds to the final", func() {
			pre, _ := h.Rank("0.Forduló").Value()
			first, _ := h.Rank("1.Forduló").Value()
			semi, _ := h.Rank("Elődöntő").Value()
			final, _ := h.Rank("Döntő").Value()
			So(pre, ShouldBeLessThan, first)
			So(first, ShouldBeLessThan, semi)
			So(semi, ShouldBeLessThan, final)
		})

		Convey("Language variants share a rank", func() {
			So(h.Rank("Finále"), ShouldResemble, h.Rank("Döntő"))
			So(h.Rank("Semifinal"), ShouldResemble, h.Rank("Elődöntő"))
		})

		Convey("Spacing and case do not matter", func() {
			So(h.Rank("1. Forduló"), ShouldResemble, h.Rank("1.Forduló"))
			So(h.Rank("döntő").IsKnown(), ShouldBeTrue)
		})

		Convey("Unmapped names are Unknown", func() {
			r := h.Rank("Finals of the Universe")
			So(r.IsKnown(), ShouldBeFalse)
			So(r, ShouldResemble, hierarchy.Unknown)
			So(r.String(), ShouldEqual, "unknown")
		})

		Convey("The canonical name of a rank is its first label", func() {
			n, ok := h.Name(h.Rank("Final"))
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, "Döntő")
			_, ok = h.Name(hierarchy.Unknown)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestAdvancement(t *testing.T) {
	Convey("Given the default hierarchy", t, func() {
		h := hierarchy.Default()

		Convey("A finalist advanced past the semifinal", func() {
			So(hierarchy.HasAdvancedPast(h.Rank("Döntő"), h.Rank("Elődöntő")), ShouldBeTrue)
		})

		Convey("Nobody advances past the round they stopped in", func() {
			So(hierarchy.HasAdvancedPast(h.Rank("Elődöntő"), h.Rank("Elődöntő")), ShouldBeFalse)
		})

		Convey("Unknown ranks never count as advancement", func() {
			So(hierarchy.HasAdvancedPast(hierarchy.Known(99), hierarchy.Unknown), ShouldBeFalse)
			So(hierarchy.HasAdvancedPast(hierarchy.Unknown, h.Rank("0.Forduló")), ShouldBeFalse)
		})

		Convey("MaxReached ignores unknown names", func() {
			So(h.MaxReached("1.Forduló", "mystery", "Elődöntő"), ShouldResemble, h.Rank("Elődöntő"))
			So(h.MaxReached("mystery").IsKnown(), ShouldBeFalse)
			So(h.MaxReached().IsKnown(), ShouldBeFalse)
		})
	})
}

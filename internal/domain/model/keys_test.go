package model_test

import (
	"testing"

	"github.com/matteohorvath/ksis/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNameKey(t *testing.T) {
	Convey("Given names that differ only by formatting", t, func() {
		a := model.NewNameKey("  Kovács   Péter ")
		b := model.NewNameKey("KOVÁCS Péter")
		// decomposed á: a + combining acute
		c := model.NewNameKey("Kovács Péter")

		Convey("Then they share one dedup key", func() {
			So(a.Equal(b), ShouldBeTrue)
			So(a.Equal(c), ShouldBeTrue)
			So(a.Key(), ShouldEqual, model.FoldKey("kovács péter"))
		})

		Convey("And the display form keeps case but normalizes spacing", func() {
			So(a.Display(), ShouldEqual, "Kovács Péter")
			So(c.Display(), ShouldEqual, "Kovács Péter")
		})
	})

	Convey("Given an empty name", t, func() {
		So(model.NewNameKey("   ").IsZero(), ShouldBeTrue)
	})
}

func TestCoupleKey(t *testing.T) {
	Convey("Given the same couple from two clubs", t, func() {
		Convey("When identity is name only", func() {
			a := model.NewCoupleKey("Nagy Anna - Kis Béla", "Club A", false)
			b := model.NewCoupleKey("Nagy Anna - Kis Béla", "Club B", false)

			Convey("Then the keys are equal", func() {
				So(a, ShouldResemble, b)
				So(a.Club, ShouldBeEmpty)
			})
		})

		Convey("When identity is name plus club", func() {
			a := model.NewCoupleKey("Nagy Anna - Kis Béla", "Club A", true)
			b := model.NewCoupleKey("Nagy Anna - Kis Béla", "Club B", true)

			Convey("Then the keys differ", func() {
				So(a, ShouldNotResemble, b)
			})
		})
	})
}

func TestNormalizeScalars(t *testing.T) {
	Convey("Start numbers and letters are trimmed", t, func() {
		So(model.NormalizeNumber(" 7. "), ShouldEqual, "7")
		So(model.NormalizeNumber("12"), ShouldEqual, "12")

		r, ok := model.NormalizeLetter(" A ")
		So(ok, ShouldBeTrue)
		So(r, ShouldEqual, 'A')

		_, ok = model.NormalizeLetter("AB")
		So(ok, ShouldBeFalse)
		_, ok = model.NormalizeLetter("")
		So(ok, ShouldBeFalse)
	})
}

func TestVariant(t *testing.T) {
	Convey("Variants have stable names", t, func() {
		So(model.VariantResults.String(), ShouldEqual, "results")
		So(model.VariantMarksHTML.String(), ShouldEqual, "marks_html")
		So(model.Variant(99).String(), ShouldEqual, "unknown")
		So(model.CompetitionID(42).String(), ShouldEqual, "42")
	})
}

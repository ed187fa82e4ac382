package markcodec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/matteohorvath/ksis/internal/domain/markcodec"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMark(t *testing.T) {
	Convey("Given the dot placeholder", t, func() {
		Convey("A dot is absent", func() {
			_, ok := markcodec.ParseMark('.', '.')
			So(ok, ShouldBeFalse)
		})

		Convey("Digits and X flags are kept literally", func() {
			m, ok := markcodec.ParseMark('3', '.')
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, markcodec.Mark("3"))

			m, ok = markcodec.ParseMark('X', '.')
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, markcodec.Mark("X"))
		})
	})
}

func TestSplitMarks(t *testing.T) {
	Convey("Given judges A and B", t, func() {
		letters := []rune("AB")

		Convey("When the mark string is \"1.\"", func() {
			got, err := markcodec.SplitMarks("1.", letters, '.')

			Convey("Then only judge A has a mark", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []markcodec.LetterMark{{Letter: 'A', Mark: "1"}})
			})
		})

		Convey("When the mark string is too long", func() {
			got, err := markcodec.SplitMarks("1X2", letters, '.')

			Convey("Then no marks come back and the mismatch is reported", func() {
				So(got, ShouldBeNil)
				So(errors.Is(err, markcodec.ErrLengthMismatch), ShouldBeTrue)
			})
		})

		Convey("When every position is a placeholder", func() {
			got, err := markcodec.SplitMarks("..", letters, '.')
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestParsePlacement(t *testing.T) {
	Convey("Placements read the leading integer", t, func() {
		expectPlacement := func(in string, want int) {
			got, ok := markcodec.ParsePlacement(in)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}
		expectPlacement("3. - kieséssel", 3)
		expectPlacement("12.", 12)
		expectPlacement(" 1 ", 1)
		expectPlacement("5-6.", 5)
		expectPlacement("7. - Továbbjutott", 7)
	})

	Convey("Text without leading digits is unknown", t, func() {
		for _, in := range []string{"", "-", "kiesett", "  "} {
			_, ok := markcodec.ParsePlacement(in)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestParseScore(t *testing.T) {
	Convey("Scores fall back through the strategies", t, func() {
		cases := map[string]string{
			"12.5":         "12.5",
			"12,5":         "12.5",
			"7":            "7",
			" 3,25 ":       "3.25",
			"1.234,5":      "1234.5",
			"1 234,5":      "1234.5",
			"1.234.567,25": "1234567.25",
		}
		for in, want := range cases {
			got, ok := markcodec.ParseScore(in)
			So(ok, ShouldBeTrue)
			So(got.Equal(decimal.RequireFromString(want)), ShouldBeTrue)
		}
	})

	Convey("Unreadable scores are unknown, not zero", t, func() {
		for _, in := range []string{"abc", "", "1,2,3", "1,234.5", "12.34,5", "1..234,5", ".234,5"} {
			_, ok := markcodec.ParseScore(in)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestParseCountAndDate(t *testing.T) {
	Convey("Counts read the leading integer", t, func() {
		n, ok := markcodec.ParseCount("24 pár")
		So(ok, ShouldBeTrue)
		So(n, ShouldEqual, 24)

		_, ok = markcodec.ParseCount("n/a")
		So(ok, ShouldBeFalse)
	})

	Convey("Dates accept the scraped layouts", t, func() {
		want := time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC)
		for _, in := range []string{"2023.05.14", "2023.05.14.", "2023-05-14", "14.05.2023", "2023.05.14 vasárnap"} {
			got, ok := markcodec.ParseDate(in)
			So(ok, ShouldBeTrue)
			So(got.Equal(want), ShouldBeTrue)
		}

		_, ok := markcodec.ParseDate("május")
		So(ok, ShouldBeFalse)
	})
}

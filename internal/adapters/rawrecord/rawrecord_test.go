package rawrecord_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matteohorvath/ksis/internal/adapters/rawrecord"
	"github.com/matteohorvath/ksis/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const resultsJSON = `{
  "title": "Tavaszi Kupa",
  "date": "2023.04.15",
  "location": "Budapest",
  "participantCount": 12,
  "counters": ["Kiss Anna", "Nagy Béla"],
  "judges": [
    {"id": "A", "name": "Kovács Péter", "location": "Budapest", "link": "https://example.org/j/1"},
    {"id": "B", "name": "Szabó Anna", "location": null}
  ],
  "results": [
    {"name": "Nagy Ádám - Kiss Éva", "club": "Alfa TSE", "number": 7, "position": "1.", "section": "Döntő"}
  ]
}`

const marksJSON = `{
  "title": "Tavaszi Kupa pontozás",
  "sections": [
    {"title": "Döntő", "headers": ["FordulóRsz.", "Samba/AB"], "rows": [{"FordulóRsz.": "7", "Samba/AB": "1."}]}
  ]
}`

const marksHTML = `<html><body>
<h3>Tavaszi Kupa</h3>
<h4>Elődöntő</h4>
<table class="table">
  <thead><tr><th>Rsz.</th><th>Samba/AB</th><th>Összesen</th></tr></thead>
  <tbody>
    <tr><td>7</td><td>XX</td><td>2</td></tr>
    <tr><td colspan="3"><b>Reményfutam</b></td></tr>
    <tr><td>8</td><td>X.</td><td>1</td></tr>
  </tbody>
</table>
<table class="table">
  <caption>Döntő</caption>
  <thead><tr><th>Rsz.</th><th>Samba/AB</th></tr></thead>
  <tbody><tr><td> 7 </td><td>1.</td></tr></tbody>
</table>
</body></html>`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)
	return path
}

func TestScan(t *testing.T) {
	Convey("Given a results dir nested in the data dir", t, func() {
		data := t.TempDir()
		results := filepath.Join(data, "results")
		So(os.Mkdir(results, 0o755), ShouldBeNil)
		writeFile(results, "competition_results_12.json", resultsJSON)
		writeFile(data, "competition_marks_12.json", marksJSON)
		writeFile(data, "competition_marks_13.html", marksHTML)
		writeFile(data, "notes.txt", "x")

		Convey("When scanning", func() {
			c, err := rawrecord.Scan(results, data)

			Convey("Then files are split by pass and ids come from the name", func() {
				So(err, ShouldBeNil)
				So(c.Results, ShouldHaveLength, 1)
				So(c.Results[0].ID, ShouldEqual, model.CompetitionID(12))
				So(c.Marks, ShouldHaveLength, 2)
				So(c.Marks[1].ID, ShouldEqual, model.CompetitionID(13))
				So(c.Unmatched, ShouldHaveLength, 1)
				So(c.Len(), ShouldEqual, 3)
			})
		})

		Convey("Then a missing directory is empty", func() {
			c, err := rawrecord.Scan(filepath.Join(data, "nope"), filepath.Join(data, "nope2"))
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 0)
		})
	})
}

func TestDecodeJSON(t *testing.T) {
	Convey("Given a results document", t, func() {
		rec, err := rawrecord.DecodeJSON(12, "r.json", []byte(resultsJSON))

		Convey("Then it decodes as results with letters from the judge id", func() {
			So(err, ShouldBeNil)
			So(rec.Variant, ShouldEqual, model.VariantResults)
			So(rec.HasResults(), ShouldBeTrue)
			So(rec.HasMarks(), ShouldBeFalse)
			So(rec.Results.Competition.ID, ShouldEqual, model.CompetitionID(12))
			So(rec.Results.Competition.ParticipantCount, ShouldEqual, "12")
			So(rec.Results.Judges, ShouldHaveLength, 2)
			So(rec.Results.Judges[0].Letter, ShouldEqual, "A")
			So(rec.Results.Judges[1].Location, ShouldEqual, "")
			So(rec.Results.Participants[0].Number, ShouldEqual, "7")
		})
	})

	Convey("Given a marks document", t, func() {
		rec, err := rawrecord.DecodeJSON(12, "m.json", []byte(marksJSON))

		Convey("Then rows keep the full header text", func() {
			So(err, ShouldBeNil)
			So(rec.Variant, ShouldEqual, model.VariantMarks)
			So(rec.Marks.Sections, ShouldHaveLength, 1)
			So(rec.Marks.Sections[0].Rows[0]["Samba/AB"], ShouldEqual, "1.")
		})
	})

	Convey("Given a bundle document", t, func() {
		doc := `{"results": ` + resultsJSON + `, "marks": ` + marksJSON + `}`
		rec, err := rawrecord.DecodeJSON(12, "b.json", []byte(doc))

		Convey("Then both passes are fed", func() {
			So(err, ShouldBeNil)
			So(rec.Variant, ShouldEqual, model.VariantBundle)
			So(rec.HasResults(), ShouldBeTrue)
			So(rec.HasMarks(), ShouldBeTrue)
			So(rec.Marks.CompetitionID, ShouldEqual, model.CompetitionID(12))
		})
	})

	Convey("Given documents that are not competition records", t, func() {
		for _, doc := range []string{`[1,2]`, `{"foo": 1}`, `{"sections": null}`, `not json`} {
			_, err := rawrecord.DecodeJSON(1, "x.json", []byte(doc))
			So(errors.Is(err, rawrecord.ErrMalformedContainer), ShouldBeTrue)
		}
	})
}

func TestDecodeHTML(t *testing.T) {
	Convey("Given a saved marks page", t, func() {
		rec, err := rawrecord.DecodeHTML(13, "m.html", strings.NewReader(marksHTML))

		Convey("Then every table and sub-round becomes a section", func() {
			So(err, ShouldBeNil)
			So(rec.Variant, ShouldEqual, model.VariantMarksHTML)
			So(rec.Marks.Title, ShouldEqual, "Tavaszi Kupa")

			secs := rec.Marks.Sections
			So(secs, ShouldHaveLength, 3)
			So(secs[0].Title, ShouldEqual, "Elődöntő")
			So(secs[0].Headers, ShouldResemble, []string{"Rsz.", "Samba/AB", "Összesen"})
			So(secs[0].Rows, ShouldResemble, []model.Row{{"Rsz.": "7", "Samba/AB": "XX", "Összesen": "2"}})
			So(secs[1].Title, ShouldEqual, "Reményfutam")
			So(secs[1].Rows[0]["Rsz."], ShouldEqual, "8")
			So(secs[2].Title, ShouldEqual, "Döntő")
			So(secs[2].Rows[0]["Rsz."], ShouldEqual, "7")
		})
	})

	Convey("Given a page without marks tables", t, func() {
		_, err := rawrecord.DecodeHTML(13, "m.html", strings.NewReader("<html><body><p>404</p></body></html>"))
		So(errors.Is(err, rawrecord.ErrMalformedContainer), ShouldBeTrue)
	})
}

func TestDecodeFile(t *testing.T) {
	Convey("Given files on disk", t, func() {
		dir := t.TempDir()

		Convey("Then the extension selects the decoder", func() {
			rec, err := rawrecord.Decode(writeFile(dir, "competition_marks_13.html", marksHTML))
			So(err, ShouldBeNil)
			So(rec.ID, ShouldEqual, model.CompetitionID(13))
			So(rec.Variant, ShouldEqual, model.VariantMarksHTML)

			rec, err = rawrecord.Decode(writeFile(dir, "competition_results_12.json", resultsJSON))
			So(err, ShouldBeNil)
			So(rec.Variant, ShouldEqual, model.VariantResults)
		})

		Convey("Then a name without an id is rejected", func() {
			_, err := rawrecord.Decode(writeFile(dir, "results.json", resultsJSON))
			So(errors.Is(err, rawrecord.ErrNoCompetitionID), ShouldBeTrue)
		})
	})
}

package rawrecord

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/matteohorvath/ksis/internal/domain/model"
)

// DecodeHTML parses a saved marks page. Every table.table is one round;
// a body row holding a colspan cell with an <i> or <b> starts a sub-round
// with the same headers.
func DecodeHTML(id model.CompetitionID, source string, r io.Reader) (model.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, source, err)
	}
	tables := doc.Find("table.table")
	if tables.Length() == 0 {
		return model.Record{}, fmt.Errorf("%w: %s: no marks tables", ErrMalformedContainer, source)
	}

	m := &model.Marks{CompetitionID: id, Title: text(doc.Find("h3").First())}
	if m.Title == "" {
		m.Title = fmt.Sprintf("Marks for Competition %s", id)
	}
	tables.Each(func(i int, tbl *goquery.Selection) {
		m.Sections = append(m.Sections, tableSections(i, tbl)...)
	})
	return model.Record{Variant: model.VariantMarksHTML, ID: id, Source: source, Marks: m}, nil
}

func tableSections(i int, tbl *goquery.Selection) []model.Section {
	var headers []string
	tbl.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, text(th))
	})

	var out []model.Section
	cur := model.Section{Title: tableTitle(i, tbl), Headers: headers}
	tbl.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if sub := tr.Find("td[colspan]"); sub.Length() > 0 && sub.Find("i, b").Length() > 0 {
			if len(cur.Rows) > 0 {
				out = append(out, cur)
			}
			cur = model.Section{Title: text(sub.First()), Headers: headers}
			return
		}
		row := make(model.Row, len(headers))
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			if j < len(headers) {
				row[headers[j]] = text(td)
			}
		})
		if len(row) > 0 {
			cur.Rows = append(cur.Rows, row)
		}
	})
	if len(cur.Rows) > 0 || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

func tableTitle(i int, tbl *goquery.Selection) string {
	if t := text(tbl.Find("caption").First()); t != "" {
		return t
	}
	if t := text(tbl.PrevAllFiltered("h4, h3, p.lead").First()); t != "" {
		return t
	}
	return fmt.Sprintf("Section %d", i+1)
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

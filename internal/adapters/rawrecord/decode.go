package rawrecord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matteohorvath/ksis/internal/domain/model"
)

// Decode reads one raw file and resolves its variant. The competition id
// comes from the file name.
func Decode(path string) (model.Record, error) {
	id, err := FileID(path)
	if err != nil {
		return model.Record{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Record{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return DecodeHTML(id, path, f)
	default:
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(f); err != nil {
			return model.Record{}, fmt.Errorf("read %s: %w", path, err)
		}
		return DecodeJSON(id, path, buf.Bytes())
	}
}

// flexString accepts JSON strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = flexString(n.String())
	}
	return nil
}

type judgeDoc struct {
	// ID is the judge's letter on results pages.
	ID       flexString `json:"id"`
	Letter   flexString `json:"letter"`
	Name     string     `json:"name"`
	Location string     `json:"location"`
	Link     string     `json:"link"`
}

type participantDoc struct {
	Name        string     `json:"name"`
	Club        string     `json:"club"`
	Number      flexString `json:"number"`
	Position    flexString `json:"position"`
	Section     string     `json:"section"`
	ProfileLink string     `json:"profileLink"`
}

type resultsDoc struct {
	Title                   string           `json:"title"`
	Date                    string           `json:"date"`
	Location                string           `json:"location"`
	Organizer               string           `json:"organizer"`
	OrganizerRepresentative string           `json:"organizerRepresentative"`
	Type                    string           `json:"type"`
	ParticipantCount        flexString       `json:"participantCount"`
	Commissioner            string           `json:"commissioner"`
	Supervisor              string           `json:"supervisor"`
	Announcer               string           `json:"announcer"`
	Counters                []string         `json:"counters"`
	Judges                  []judgeDoc       `json:"judges"`
	Results                 []participantDoc `json:"results"`
}

type sectionDoc struct {
	Title   string                  `json:"title"`
	Headers []string                `json:"headers"`
	Rows    []map[string]flexString `json:"rows"`
}

type marksDoc struct {
	Title    string       `json:"title"`
	Sections []sectionDoc `json:"sections"`
}

type bundleDoc struct {
	Results resultsDoc `json:"results"`
	Marks   marksDoc   `json:"marks"`
}

// probe tells the JSON variants apart by which top-level fields are present.
type probe struct {
	Judges   json.RawMessage `json:"judges"`
	Results  json.RawMessage `json:"results"`
	Sections json.RawMessage `json:"sections"`
	Marks    json.RawMessage `json:"marks"`
}

func (p probe) variant() model.Variant {
	results := bytes.TrimSpace(p.Results)
	switch {
	case present(p.Marks) && len(results) > 0 && results[0] == '{':
		return model.VariantBundle
	case present(p.Sections):
		return model.VariantMarks
	case present(p.Judges) || (len(results) > 0 && results[0] == '['):
		return model.VariantResults
	default:
		return model.VariantUnknown
	}
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// DecodeJSON decodes a results, marks or bundle JSON document.
func DecodeJSON(id model.CompetitionID, source string, data []byte) (model.Record, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, source, err)
	}
	rec := model.Record{Variant: p.variant(), ID: id, Source: source}

	switch rec.Variant {
	case model.VariantResults:
		var doc resultsDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return model.Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, source, err)
		}
		rec.Results = doc.normalize(id)
	case model.VariantMarks:
		var doc marksDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return model.Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, source, err)
		}
		rec.Marks = doc.normalize(id)
	case model.VariantBundle:
		var doc bundleDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return model.Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, source, err)
		}
		rec.Results = doc.Results.normalize(id)
		rec.Marks = doc.Marks.normalize(id)
	default:
		return model.Record{}, fmt.Errorf("%w: %s: no judges, results or sections", ErrMalformedContainer, source)
	}
	return rec, nil
}

func (d resultsDoc) normalize(id model.CompetitionID) *model.Results {
	res := &model.Results{
		Competition: model.Competition{
			ID:                      id,
			Title:                   d.Title,
			Date:                    d.Date,
			Location:                d.Location,
			Organizer:               d.Organizer,
			OrganizerRepresentative: d.OrganizerRepresentative,
			Type:                    d.Type,
			ParticipantCount:        string(d.ParticipantCount),
			Commissioner:            d.Commissioner,
			Supervisor:              d.Supervisor,
			Announcer:               d.Announcer,
			Counters:                d.Counters,
		},
	}
	if res.Competition.Title == "" {
		res.Competition.Title = fmt.Sprintf("Competition %s", id)
	}
	for _, j := range d.Judges {
		letter := string(j.ID)
		if letter == "" {
			letter = string(j.Letter)
		}
		res.Judges = append(res.Judges, model.Judge{
			Letter:   letter,
			Name:     j.Name,
			Location: j.Location,
			Link:     j.Link,
		})
	}
	for _, p := range d.Results {
		res.Participants = append(res.Participants, model.Participant{
			Number:      string(p.Number),
			Name:        p.Name,
			Club:        p.Club,
			Position:    string(p.Position),
			Section:     p.Section,
			ProfileLink: p.ProfileLink,
		})
	}
	return res
}

func (d marksDoc) normalize(id model.CompetitionID) *model.Marks {
	m := &model.Marks{CompetitionID: id, Title: d.Title}
	if m.Title == "" {
		m.Title = fmt.Sprintf("Marks for Competition %s", id)
	}
	for _, s := range d.Sections {
		sec := model.Section{Title: s.Title, Headers: s.Headers}
		for _, r := range s.Rows {
			row := make(model.Row, len(r))
			for k, v := range r {
				row[k] = string(v)
			}
			sec.Rows = append(sec.Rows, row)
		}
		m.Sections = append(m.Sections, sec)
	}
	return m
}

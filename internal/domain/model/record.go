// Package model contains the canonical intermediate representation that every
// raw-record variant is normalized into before ingestion.
package model

import "strconv"

// CompetitionID is the scraper-assigned external competition identifier.
type CompetitionID int64

func (id CompetitionID) String() string { return strconv.FormatInt(int64(id), 10) }

// Variant tags the raw-record shape a Record was decoded from.
type Variant int

// Known raw-record variants.
const (
	VariantUnknown Variant = iota
	// VariantResults carries competition metadata, judges and participants.
	VariantResults
	// VariantMarks carries per-round mark tables as JSON.
	VariantMarks
	// VariantMarksHTML is the raw HTML marks page.
	VariantMarksHTML
	// VariantBundle carries results and marks for one competition in one file.
	VariantBundle
)

func (v Variant) String() string {
	switch v {
	case VariantResults:
		return "results"
	case VariantMarks:
		return "marks"
	case VariantMarksHTML:
		return "marks_html"
	case VariantBundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// Competition is the metadata block of a results record. Scalar fields stay
// as text; typed parsing happens at reconciliation time.
type Competition struct {
	ID                      CompetitionID
	Title                   string
	Date                    string
	Location                string
	Organizer               string
	OrganizerRepresentative string
	Type                    string
	ParticipantCount        string
	Commissioner            string
	Supervisor              string
	Announcer               string
	Counters                []string
}

// Judge is one panel member as listed on the results page.
type Judge struct {
	Letter   string
	Name     string
	Location string
	Link     string
}

// Participant is one result row: a couple under a start number.
type Participant struct {
	Number      string
	Name        string
	Club        string
	Position    string
	Section     string
	ProfileLink string
}

// Results is the normalized results record.
type Results struct {
	Competition  Competition
	Judges       []Judge
	Participants []Participant
}

// Row maps full header text to cell text.
type Row map[string]string

// Section is one scored round table.
type Section struct {
	Title   string
	Headers []string
	Rows    []Row
}

// Marks is the normalized marks-detail record.
type Marks struct {
	CompetitionID CompetitionID
	Title         string
	Sections      []Section
}

// Record is one decoded raw file. Results and Marks are set according to Variant.
type Record struct {
	Variant Variant
	ID      CompetitionID
	Source  string
	Results *Results
	Marks   *Marks
}

// HasResults reports whether the record feeds the results pass.
func (r Record) HasResults() bool { return r.Results != nil }

// HasMarks reports whether the record feeds the marks pass.
func (r Record) HasMarks() bool { return r.Marks != nil }

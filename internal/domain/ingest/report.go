package ingest

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/model"
)

// WarningKind classifies a recoverable ingestion problem.
type WarningKind string

// Warning kinds.
const (
	WarnMarksDeferred       WarningKind = "marks_deferred"
	WarnMalformedContainer  WarningKind = "malformed_container"
	WarnMissingParticipant  WarningKind = "missing_participant"
	WarnMissingNumber       WarningKind = "missing_number"
	WarnMissingNumberColumn WarningKind = "missing_number_column"
	WarnUnresolvedLetter    WarningKind = "unresolved_letter"
	WarnInvalidLetter       WarningKind = "invalid_letter"
	WarnDuplicateLetter     WarningKind = "duplicate_letter"
	WarnLengthMismatch      WarningKind = "length_mismatch"
	WarnDuplicateRound      WarningKind = "duplicate_round"
	WarnUntitledRound       WarningKind = "untitled_round"
	WarnUnclassifiedRound   WarningKind = "unclassified_round"
	WarnUnparseableField    WarningKind = "unparseable_field"
	WarnEmptyName           WarningKind = "empty_name"
	WarnStoreFailure        WarningKind = "store_failure"
)

// Warning carries enough identity to find and fix the source row.
type Warning struct {
	Kind              WarningKind         `json:"kind"`
	CompetitionID     model.CompetitionID `json:"competition_id"`
	Round             string              `json:"round,omitempty"`
	ParticipantNumber string              `json:"participant_number,omitempty"`
	Dance             string              `json:"dance,omitempty"`
	JudgeLetter       string              `json:"judge_letter,omitempty"`
	Message           string              `json:"message"`
}

// CompetitionReport is the outcome of one pass over one competition.
type CompetitionReport struct {
	CompetitionID model.CompetitionID     `json:"competition_id"`
	Source        string                  `json:"source,omitempty"`
	Stage         model.Stage             `json:"stage"`
	FailedAt      *model.Stage            `json:"failed_at,omitempty"`
	Deferred      bool                    `json:"deferred,omitempty"`
	Processed     map[repository.Kind]int `json:"processed"`
	Skipped       map[repository.Kind]int `json:"skipped"`
	Warnings      []Warning               `json:"warnings,omitempty"`
	Duration      time.Duration           `json:"duration"`
}

// Failed reports whether the competition ended in the failed stage.
func (r CompetitionReport) Failed() bool { return r.Stage == model.StageFailed }

// WarningCount counts warnings of kind.
func (r CompetitionReport) WarningCount(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// merge folds a later pass over the same competition into r.
func (r *CompetitionReport) merge(o CompetitionReport) {
	if o.Stage == model.StageFailed || o.Stage > r.Stage {
		r.Stage = o.Stage
	}
	if o.FailedAt != nil {
		r.FailedAt = o.FailedAt
	}
	r.Deferred = o.Deferred
	for k, n := range o.Processed {
		r.Processed[k] += n
	}
	for k, n := range o.Skipped {
		r.Skipped[k] += n
	}
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.Duration += o.Duration
}

// Totals sums a run.
type Totals struct {
	Competitions int                     `json:"competitions"`
	Done         int                     `json:"done"`
	Failed       int                     `json:"failed"`
	Deferred     int                     `json:"deferred"`
	Warnings     int                     `json:"warnings"`
	Processed    map[repository.Kind]int `json:"processed"`
	Skipped      map[repository.Kind]int `json:"skipped"`
}

// Report aggregates one ingestion run. Add is safe for concurrent use.
type Report struct {
	RunID        uuid.UUID           `json:"run_id"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
	Competitions []CompetitionReport `json:"competitions"`
	Totals       Totals              `json:"totals"`

	mu    sync.Mutex
	index map[model.CompetitionID]int
}

// NewReport starts a run report.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		index:     make(map[model.CompetitionID]int),
	}
}

// Add records one competition pass; passes over the same competition merge.
func (r *Report) Add(cr CompetitionReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[cr.CompetitionID]; ok {
		r.Competitions[i].merge(cr)
		return
	}
	r.index[cr.CompetitionID] = len(r.Competitions)
	r.Competitions = append(r.Competitions, cr)
}

// Finish sorts competitions by id and computes totals.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now()
	sort.Slice(r.Competitions, func(i, j int) bool {
		return r.Competitions[i].CompetitionID < r.Competitions[j].CompetitionID
	})
	for i, c := range r.Competitions {
		r.index[c.CompetitionID] = i
	}

	t := Totals{
		Competitions: len(r.Competitions),
		Processed:    make(map[repository.Kind]int),
		Skipped:      make(map[repository.Kind]int),
	}
	for _, c := range r.Competitions {
		switch {
		case c.Failed():
			t.Failed++
		case c.Deferred:
			t.Deferred++
		case c.Stage == model.StageDone:
			t.Done++
		}
		t.Warnings += len(c.Warnings)
		for k, n := range c.Processed {
			t.Processed[k] += n
		}
		for k, n := range c.Skipped {
			t.Skipped[k] += n
		}
	}
	r.Totals = t
}

// Get returns the report of one competition.
func (r *Report) Get(id model.CompetitionID) (CompetitionReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return CompetitionReport{}, false
	}
	return r.Competitions[i], true
}

func newCompetitionReport(id model.CompetitionID, source string) CompetitionReport {
	return CompetitionReport{
		CompetitionID: id,
		Source:        source,
		Stage:         model.StageStart,
		Processed:     make(map[repository.Kind]int),
		Skipped:       make(map[repository.Kind]int),
	}
}

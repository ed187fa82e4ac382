// Package ingest drives the per-competition state machine that turns
// normalized results and marks records into stored entities.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/ledger"
	"github.com/matteohorvath/ksis/internal/domain/markcodec"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/matteohorvath/ksis/internal/domain/reconcile"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/matteohorvath/ksis/pkg/metrics"
)

// Orchestrator ingests competitions. Different competitions may be ingested
// concurrently; the passes of one competition must not overlap.
type Orchestrator struct {
	rec    *reconcile.Reconciler
	ledger ledger.Ledger
	hier   *hierarchy.Hierarchy
	log    logger.Logger

	placeholder      rune
	roundParallelism int
	maxStoreFailures int64

	consecutiveFailures atomic.Int64
	degraded            atomic.Bool
}

// New creates an Orchestrator.
func New(rec *reconcile.Reconciler, l ledger.Ledger, h *hierarchy.Hierarchy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rec:              rec,
		ledger:           l,
		hier:             h,
		placeholder:      defaultPlaceholder,
		roundParallelism: defaultRoundParallelism,
		maxStoreFailures: defaultMaxStoreFailures,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Named("ingest")
	}
	return o
}

// Degraded reports whether consecutive store failures passed the threshold.
func (o *Orchestrator) Degraded() bool { return o.degraded.Load() }

// Err returns ErrStoreDegraded once the orchestrator is degraded.
func (o *Orchestrator) Err() error {
	if o.Degraded() {
		return ErrStoreDegraded
	}
	return nil
}

// observe tracks consecutive store failures. Any answer from the store,
// including "not found", resets the count.
func (o *Orchestrator) observe(err error) {
	if err == nil || !reconcile.IsStoreFailure(err) {
		o.consecutiveFailures.Store(0)
		return
	}
	if o.consecutiveFailures.Add(1) > o.maxStoreFailures && !o.degraded.Swap(true) {
		o.log.Error(context.Background(), "store failing pervasively",
			logger.Int64("consecutive_failures", o.consecutiveFailures.Load()))
	}
}

func (o *Orchestrator) newCollector(id model.CompetitionID, source string) *collector {
	return &collector{
		report: newCompetitionReport(id, source),
		log:    o.log,
	}
}

// stored records a successful upsert of kind.
func (o *Orchestrator) stored(c *collector, kind repository.Kind) {
	o.observe(nil)
	c.processed(kind)
}

// failure records a failed reconciler call as a skipped entity. An empty
// warning kind is derived from err.
func (o *Orchestrator) failure(ctx context.Context, c *collector, kind repository.Kind, n int, w Warning, err error) {
	o.observe(err)
	if w.Kind == "" {
		if errors.Is(err, reconcile.ErrInvalidKey) {
			w.Kind = WarnEmptyName
		} else {
			w.Kind = WarnStoreFailure
		}
	}
	w.Message = err.Error()
	c.skip(ctx, kind, n, w)
}

// advance completes a stage in the run ledger and in the store.
func (o *Orchestrator) advance(ctx context.Context, c *collector, stage model.Stage, started time.Time) {
	c.report.Stage = stage
	o.ledger.Advance(ctx, c.report.CompetitionID, stage)
	err := o.rec.AdvanceStage(ctx, c.report.CompetitionID, stage)
	o.observe(err)
	if err != nil {
		c.warn(ctx, Warning{Kind: WarnStoreFailure, Message: fmt.Sprintf("persist stage %s: %v", stage, err)})
	}
	metrics.RecordStageDuration(stage.String(), time.Since(started))
}

// fail moves the competition to the failed stage.
func (o *Orchestrator) fail(ctx context.Context, c *collector, at model.Stage, err error) {
	c.report.Stage = model.StageFailed
	c.report.FailedAt = &at
	o.log.Error(ctx, "competition failed",
		logger.Int64("competition_id", int64(c.report.CompetitionID)),
		logger.String("file", c.report.Source),
		logger.String("stage", at.String()),
		logger.Error(err))
}

func (o *Orchestrator) finish(ctx context.Context, c *collector, started time.Time) CompetitionReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.report
	r.Duration = time.Since(started)

	outcome := r.Stage.String()
	if r.Deferred {
		outcome = "deferred"
	}
	metrics.RecordCompetition(outcome)
	o.log.Info(ctx, "competition pass finished",
		logger.Int64("competition_id", int64(r.CompetitionID)),
		logger.String("file", r.Source),
		logger.String("stage", outcome),
		logger.Int("warnings", len(r.Warnings)),
		logger.Duration("duration", r.Duration))
	return r
}

// Fail reports a competition whose raw record could not be decoded.
func (o *Orchestrator) Fail(ctx context.Context, id model.CompetitionID, source string, err error) CompetitionReport {
	start := time.Now()
	c := o.newCollector(id, source)
	c.warn(ctx, Warning{Kind: WarnMalformedContainer, Message: err.Error()})
	o.fail(ctx, c, model.StageStart, err)
	return o.finish(ctx, c, start)
}

// IngestResults runs the results pass: competition, judges, participants.
func (o *Orchestrator) IngestResults(ctx context.Context, res model.Results, source string) CompetitionReport {
	start := time.Now()
	id := res.Competition.ID
	c := o.newCollector(id, source)

	stageStart := time.Now()
	in := o.competitionInput(ctx, c, res.Competition)
	if _, err := o.rec.UpsertCompetition(ctx, in); err != nil {
		o.observe(err)
		c.warn(ctx, Warning{Kind: WarnStoreFailure, Message: err.Error()})
		o.fail(ctx, c, model.StageCompetitionUpserted, err)
		return o.finish(ctx, c, start)
	}
	o.stored(c, repository.KindCompetition)
	o.advance(ctx, c, model.StageCompetitionUpserted, stageStart)

	stageStart = time.Now()
	o.upsertJudges(ctx, c, id, res.Judges)
	o.advance(ctx, c, model.StageJudgesUpserted, stageStart)

	stageStart = time.Now()
	o.upsertParticipants(ctx, c, id, res.Participants)
	o.advance(ctx, c, model.StageParticipantsUpserted, stageStart)

	return o.finish(ctx, c, start)
}

// competitionInput parses the scalar metadata. Unparseable values stay nil.
func (o *Orchestrator) competitionInput(ctx context.Context, c *collector, comp model.Competition) reconcile.CompetitionInput {
	in := reconcile.CompetitionInput{
		ID:                      comp.ID,
		Title:                   strings.TrimSpace(comp.Title),
		Location:                strings.TrimSpace(comp.Location),
		DateText:                strings.TrimSpace(comp.Date),
		Organizer:               strings.TrimSpace(comp.Organizer),
		OrganizerRepresentative: strings.TrimSpace(comp.OrganizerRepresentative),
		Type:                    strings.TrimSpace(comp.Type),
		Commissioner:            strings.TrimSpace(comp.Commissioner),
		Supervisor:              strings.TrimSpace(comp.Supervisor),
		Announcer:               strings.TrimSpace(comp.Announcer),
		Counters:                comp.Counters,
	}
	if in.DateText != "" {
		if t, ok := markcodec.ParseDate(in.DateText); ok {
			in.Date = &t
		} else {
			c.warn(ctx, Warning{Kind: WarnUnparseableField, Message: fmt.Sprintf("date %q", in.DateText)})
		}
	}
	if raw := strings.TrimSpace(comp.ParticipantCount); raw != "" {
		if n, ok := markcodec.ParseCount(raw); ok {
			in.ParticipantCount = &n
		} else {
			c.warn(ctx, Warning{Kind: WarnUnparseableField, Message: fmt.Sprintf("participant count %q", raw)})
		}
	}
	return in
}

func (o *Orchestrator) upsertJudges(ctx context.Context, c *collector, id model.CompetitionID, judges []model.Judge) {
	seen := make(map[rune]bool, len(judges))
	for _, j := range judges {
		letter, ok := model.NormalizeLetter(j.Letter)
		if !ok {
			c.skip(ctx, repository.KindJudgeAssignment, 1, Warning{
				Kind:        WarnInvalidLetter,
				JudgeLetter: j.Letter,
				Message:     fmt.Sprintf("judge %q has no single-letter label", j.Name),
			})
			continue
		}
		w := Warning{JudgeLetter: string(letter)}
		if seen[letter] {
			w.Kind = WarnDuplicateLetter
			w.Message = fmt.Sprintf("letter already seated, judge %q ignored", j.Name)
			c.skip(ctx, repository.KindJudgeAssignment, 1, w)
			continue
		}
		seen[letter] = true

		judge, err := o.rec.UpsertJudge(ctx, model.NewNameKey(j.Name), j.Location, j.Link)
		if err != nil {
			o.failure(ctx, c, repository.KindJudge, 1, w, err)
			continue
		}
		o.stored(c, repository.KindJudge)

		if _, err := o.rec.UpsertAssignment(ctx, id, letter, judge); err != nil {
			o.failure(ctx, c, repository.KindJudgeAssignment, 1, w, err)
			continue
		}
		o.stored(c, repository.KindJudgeAssignment)
	}
}

func (o *Orchestrator) upsertParticipants(ctx context.Context, c *collector, id model.CompetitionID, participants []model.Participant) {
	for _, p := range participants {
		number := model.NormalizeNumber(p.Number)
		w := Warning{ParticipantNumber: number}
		if number == "" {
			w.Kind = WarnMissingNumber
			w.Message = fmt.Sprintf("participant %q has no start number", p.Name)
			c.skip(ctx, repository.KindParticipantResult, 1, w)
			continue
		}

		var club *repository.Handle
		if name := model.NewNameKey(p.Club); !name.IsZero() {
			h, err := o.rec.UpsertClub(ctx, name)
			if err != nil {
				o.failure(ctx, c, repository.KindClub, 1, w, err)
			} else {
				o.stored(c, repository.KindClub)
				club = &h
			}
		}

		couple, err := o.rec.UpsertCouple(ctx, o.rec.CoupleKey(p.Name, p.Club), club)
		if err != nil {
			o.failure(ctx, c, repository.KindParticipantResult, 1, w, err)
			continue
		}
		o.stored(c, repository.KindCouple)

		_, err = o.rec.UpsertParticipant(ctx, reconcile.ParticipantInput{
			CompetitionID: id,
			Number:        number,
			Couple:        couple,
			Club:          club,
			Position:      p.Position,
			Placement:     o.placement(ctx, c, w, p.Position),
			Section:       p.Section,
			ProfileLink:   p.ProfileLink,
		})
		if err != nil {
			o.failure(ctx, c, repository.KindParticipantResult, 1, w, err)
			continue
		}
		o.stored(c, repository.KindParticipantResult)
	}
}

// placement parses a placement cell. Empty text is absent without a warning.
func (o *Orchestrator) placement(ctx context.Context, c *collector, w Warning, text string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	n, ok := markcodec.ParsePlacement(text)
	if !ok {
		w.Kind = WarnUnparseableField
		w.Message = fmt.Sprintf("placement %q", text)
		c.warn(ctx, w)
		return nil
	}
	return &n
}

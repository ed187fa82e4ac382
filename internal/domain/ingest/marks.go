package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/header"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/markcodec"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/matteohorvath/ksis/internal/domain/reconcile"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// plannedRound is a section with its order fixed before rounds run in parallel.
type plannedRound struct {
	section model.Section
	title   string
	order   int
	rank    hierarchy.Rank
	handle  repository.Handle
}

// IngestMarks runs the marks pass. It only proceeds when the competition's
// participants were stored in this run or a prior one; otherwise the report
// is deferred.
func (o *Orchestrator) IngestMarks(ctx context.Context, m model.Marks, source string) CompetitionReport {
	start := time.Now()
	id := m.CompetitionID
	c := o.newCollector(id, source)

	ready, err := o.ready(ctx, id)
	o.observe(err)
	if err != nil || !ready {
		msg := "participants of this competition are not stored yet"
		if err != nil {
			msg = fmt.Sprintf("cannot read competition stage: %v", err)
		}
		c.report.Deferred = true
		c.warn(ctx, Warning{Kind: WarnMarksDeferred, Message: msg})
		return o.finish(ctx, c, start)
	}
	c.report.Stage = model.StageParticipantsUpserted

	stageStart := time.Now()
	seats, err := o.rec.Assignments(ctx, id)
	o.observe(err)
	if err != nil {
		c.warn(ctx, Warning{Kind: WarnStoreFailure, Message: err.Error()})
		o.fail(ctx, c, model.StageRoundsProcessed, err)
		return o.finish(ctx, c, start)
	}

	marksID, err := o.rec.UpsertCompetitionMarks(ctx, id, m.Title)
	if err != nil {
		o.observe(err)
		c.warn(ctx, Warning{Kind: WarnStoreFailure, Message: err.Error()})
		o.fail(ctx, c, model.StageRoundsProcessed, err)
		return o.finish(ctx, c, start)
	}
	o.stored(c, repository.KindCompetitionMarks)

	plan := o.planRounds(ctx, c, id, marksID, m.Sections)
	letters := knownLetters(seats)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.roundParallelism)
	for _, r := range plan {
		g.Go(func() error {
			return o.processRound(gctx, c, id, r, seats, letters)
		})
	}
	if err := g.Wait(); err != nil {
		c.warn(ctx, Warning{Kind: WarnStoreFailure, Message: err.Error()})
		o.fail(ctx, c, model.StageRoundsProcessed, err)
		return o.finish(ctx, c, start)
	}
	o.advance(ctx, c, model.StageRoundsProcessed, stageStart)
	o.advance(ctx, c, model.StageDone, time.Now())

	return o.finish(ctx, c, start)
}

func (o *Orchestrator) ready(ctx context.Context, id model.CompetitionID) (bool, error) {
	if s, ok := o.ledger.Stage(ctx, id); ok && s.Reached(model.StageParticipantsUpserted) {
		return true, nil
	}
	s, ok, err := o.rec.CompetitionStage(ctx, id)
	if err != nil {
		return false, err
	}
	return ok && s.Reached(model.StageParticipantsUpserted), nil
}

// planRounds assigns orders in section order and stores the round rows. A
// repeated title reuses the first section's round.
func (o *Orchestrator) planRounds(ctx context.Context, c *collector, id model.CompetitionID, marksID repository.Handle, sections []model.Section) []plannedRound {
	plan := make([]plannedRound, 0, len(sections))
	first := make(map[string]plannedRound, len(sections))
	for i, sec := range sections {
		order := i + 1
		title := model.NormalizeName(sec.Title)
		w := Warning{Round: title}
		if title == "" {
			w.Kind = WarnUntitledRound
			w.Message = fmt.Sprintf("section %d has no title", order)
			c.skip(ctx, repository.KindRound, 1, w)
			continue
		}
		if prev, dup := first[title]; dup {
			w.Kind = WarnDuplicateRound
			w.Message = fmt.Sprintf("section %d repeats the round of section %d", order, prev.order)
			c.warn(ctx, w)
			prev.section = sec
			plan = append(plan, prev)
			continue
		}

		rank := o.hier.Rank(title)
		if !rank.IsKnown() {
			w.Kind = WarnUnclassifiedRound
			w.Message = "round name has no rank"
			c.warn(ctx, w)
			w.Kind = ""
		}
		h, err := o.rec.UpsertRound(ctx, reconcile.RoundInput{
			Marks:         marksID,
			CompetitionID: id,
			Title:         title,
			Order:         order,
			Rank:          rank,
		})
		if err != nil {
			o.failure(ctx, c, repository.KindRound, 1, w, err)
			continue
		}
		o.stored(c, repository.KindRound)

		pr := plannedRound{section: sec, title: title, order: order, rank: rank, handle: h}
		first[title] = pr
		plan = append(plan, pr)
	}
	return plan
}

func (o *Orchestrator) processRound(ctx context.Context, c *collector, id model.CompetitionID, r plannedRound, seats map[rune]repository.Handle, letters []rune) error {
	layout := header.Analyze(r.section.Headers, letters)
	for _, h := range layout.Ignored {
		o.log.Debug(ctx, "header ignored",
			logger.Int64("competition_id", int64(id)),
			logger.String("round", r.title),
			logger.String("header", h))
	}
	if _, ok := layout.Column(header.IdentityNumber); !ok {
		c.skip(ctx, repository.KindRoundMark, len(r.section.Rows)*len(layout.Dances), Warning{
			Kind:    WarnMissingNumberColumn,
			Round:   r.title,
			Message: "round table has no start number column",
		})
		return nil
	}

	for _, row := range r.section.Rows {
		if o.Degraded() {
			return ErrStoreDegraded
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		o.processRow(ctx, c, id, r, layout, row, seats)
	}
	return nil
}

func (o *Orchestrator) processRow(ctx context.Context, c *collector, id model.CompetitionID, r plannedRound, layout header.Layout, row model.Row, seats map[rune]repository.Handle) {
	raw, _ := layout.Cell(row, header.IdentityNumber)
	number := model.NormalizeNumber(raw)
	w := Warning{Round: r.title, ParticipantNumber: number}
	dances := max(len(layout.Dances), 1)
	if number == "" {
		w.Kind = WarnMissingNumber
		w.Message = "row has no start number"
		c.skip(ctx, repository.KindRoundMark, dances, w)
		return
	}
	if _, err := o.rec.RequireParticipant(ctx, id, number); err != nil {
		if errors.Is(err, reconcile.ErrMissingPrerequisite) {
			w.Kind = WarnMissingParticipant
		}
		o.failure(ctx, c, repository.KindRoundMark, dances, w, err)
		return
	}

	totalText, _ := layout.Cell(row, header.IdentityTotal)
	var total decimal.NullDecimal
	if totalText != "" {
		if d, ok := markcodec.ParseScore(totalText); ok {
			total = decimal.NullDecimal{Decimal: d, Valid: true}
		} else {
			tw := w
			tw.Kind = WarnUnparseableField
			tw.Message = fmt.Sprintf("total score %q", totalText)
			c.warn(ctx, tw)
		}
	}
	placementText, _ := layout.Cell(row, header.IdentityPlacement)
	placement := o.placement(ctx, c, w, placementText)
	advancement, _ := layout.Cell(row, header.IdentityAdvancement)

	for _, d := range layout.Dances {
		dw := w
		dw.Dance = d.Dance
		cell, danced := row[d.Header]
		if !danced {
			o.log.Debug(ctx, "dance not in row",
				logger.Int64("competition_id", int64(id)),
				logger.String("round", r.title),
				logger.String("participant_number", number),
				logger.String("dance", d.Dance))
			continue
		}
		rm, err := o.rec.UpsertRoundMark(ctx, reconcile.RoundMarkInput{
			Round:             r.handle,
			CompetitionID:     id,
			ParticipantNumber: number,
			Dance:             d.Dance,
			TotalScoreText:    totalText,
			TotalScore:        total,
			PlacementText:     placementText,
			Placement:         placement,
			Advancement:       advancement,
		})
		if err != nil {
			o.failure(ctx, c, repository.KindRoundMark, 1, dw, err)
			continue
		}
		o.stored(c, repository.KindRoundMark)
		o.judgeMarks(ctx, c, rm, d, strings.TrimSpace(cell), seats, dw)
	}
}

// judgeMarks stores one JudgeMark per non-placeholder character of cell.
// A length mismatch, an empty cell included, keeps the RoundMark and
// stores no JudgeMarks.
func (o *Orchestrator) judgeMarks(ctx context.Context, c *collector, rm repository.Handle, d header.DanceColumn, cell string, seats map[rune]repository.Handle, w Warning) {
	marks, err := markcodec.SplitMarks(cell, d.Letters, o.placeholder)
	if err != nil {
		w.Kind = WarnLengthMismatch
		w.Message = fmt.Sprintf("marks %q for judges %q: %v", cell, string(d.Letters), err)
		c.skip(ctx, repository.KindJudgeMark, len(d.Letters), w)
		return
	}
	for _, lm := range marks {
		lw := w
		lw.JudgeLetter = string(lm.Letter)
		seat, ok := seats[lm.Letter]
		if !ok {
			lw.Kind = WarnUnresolvedLetter
			lw.Message = "no judge seated under this letter"
			c.skip(ctx, repository.KindJudgeMark, 1, lw)
			continue
		}
		if _, err := o.rec.UpsertJudgeMark(ctx, rm, seat, lm.Mark); err != nil {
			o.failure(ctx, c, repository.KindJudgeMark, 1, lw, err)
			continue
		}
		o.stored(c, repository.KindJudgeMark)
	}
}

func knownLetters(seats map[rune]repository.Handle) []rune {
	out := make([]rune, 0, len(seats))
	for r := range seats {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package ingest

import (
	"context"
	"sync"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/matteohorvath/ksis/pkg/metrics"
)

// collector accumulates one CompetitionReport; rounds write to it concurrently.
type collector struct {
	mu     sync.Mutex
	report CompetitionReport
	log    logger.Logger
}

func (c *collector) warn(ctx context.Context, w Warning) {
	w.CompetitionID = c.report.CompetitionID
	c.mu.Lock()
	c.report.Warnings = append(c.report.Warnings, w)
	c.mu.Unlock()

	metrics.RecordWarning(string(w.Kind))
	fields := []logger.Field{
		logger.String("kind", string(w.Kind)),
		logger.Int64("competition_id", int64(w.CompetitionID)),
		logger.String("file", c.report.Source),
	}
	if w.Round != "" {
		fields = append(fields, logger.String("round", w.Round))
	}
	if w.ParticipantNumber != "" {
		fields = append(fields, logger.String("participant_number", w.ParticipantNumber))
	}
	if w.Dance != "" {
		fields = append(fields, logger.String("dance", w.Dance))
	}
	if w.JudgeLetter != "" {
		fields = append(fields, logger.String("judge_letter", w.JudgeLetter))
	}
	c.log.Warn(ctx, w.Message, fields...)
}

func (c *collector) processed(kind repository.Kind) {
	c.mu.Lock()
	c.report.Processed[kind]++
	c.mu.Unlock()
}

// skip counts n skipped entities of kind under one warning.
func (c *collector) skip(ctx context.Context, kind repository.Kind, n int, w Warning) {
	c.mu.Lock()
	c.report.Skipped[kind] += n
	c.mu.Unlock()
	metrics.RecordRowSkipped(string(w.Kind))
	c.warn(ctx, w)
}

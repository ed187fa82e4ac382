package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/mq/queue"
	"github.com/matteohorvath/ksis/internal/adapters/mq/worker"
	"github.com/matteohorvath/ksis/internal/adapters/rawrecord"
	"github.com/matteohorvath/ksis/internal/domain/ingest"
	"github.com/matteohorvath/ksis/internal/domain/ledger"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/matteohorvath/ksis/pkg/metrics"
)

// Pause between enqueue attempts while the job queue is full.
const enqueueBackoff = 5 * time.Millisecond

// Ingest scans the configured directories and ingests every competition:
// all results first, then all marks. Results are complete before the
// marks pass starts, so marks still gated after it stay deferred.
// The report is returned even when the run aborts.
func (s *Service) Ingest(ctx context.Context) (*ingest.Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrIngestRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	corpus, err := rawrecord.Scan(s.cfg.ResultsDir, s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	r := s.newRun(corpus.Len())
	r.log.Info(ctx, "ingestion started",
		logger.Int("results_files", len(corpus.Results)),
		logger.Int("marks_files", len(corpus.Marks)))
	for _, path := range corpus.Unmatched {
		r.log.Warn(ctx, "skipping file without competition id", logger.String("file", path))
	}

	results, marks := r.decode(ctx, corpus)

	err = r.pass(ctx, queue.PassResults, results)
	if err == nil {
		err = r.pass(ctx, queue.PassMarks, marks)
	}
	if err == nil {
		err = r.orch.Err()
	}

	r.report.Finish()
	metrics.UpdateLastRun(r.report.FinishedAt)
	s.mu.Lock()
	s.last = r.report
	s.runs++
	s.mu.Unlock()

	t := r.report.Totals
	r.log.Info(ctx, "ingestion finished",
		logger.Int("competitions", t.Competitions),
		logger.Int("done", t.Done),
		logger.Int("failed", t.Failed),
		logger.Int("deferred", t.Deferred),
		logger.Int("warnings", t.Warnings),
		logger.Duration("duration", r.report.FinishedAt.Sub(r.report.StartedAt)))
	if err != nil {
		r.log.Error(ctx, "ingestion aborted", logger.Error(err))
		return r.report, err
	}
	return r.report, nil
}

// run is the state of one ingestion.
type run struct {
	svc    *Service
	ledger ledger.Ledger
	orch   *ingest.Orchestrator
	report *ingest.Report
	log    logger.Logger
}

func (s *Service) newRun(files int) *run {
	report := ingest.NewReport()
	log := s.logger.With(logger.String("run_id", report.RunID.String()))
	l := ledger.NewInMemoryLedger(ledger.WithCapacityHint(files))
	orch := ingest.New(s.rec, l, s.hier,
		ingest.WithPlaceholder(s.cfg.Placeholder()),
		ingest.WithRoundParallelism(s.cfg.RoundParallelism),
		ingest.WithMaxStoreFailures(s.cfg.MaxStoreFailures),
		ingest.WithLogger(logger.Named("ingest").With(logger.String("run_id", report.RunID.String()))),
	)
	return &run{svc: s, ledger: l, orch: orch, report: report, log: log}
}

// decode resolves every file once. A file listed twice is ingested once;
// an undecodable file fails its competition.
func (r *run) decode(ctx context.Context, corpus rawrecord.Corpus) (results, marks []model.Record) {
	files := make([]rawrecord.File, 0, corpus.Len())
	files = append(files, corpus.Results...)
	files = append(files, corpus.Marks...)

	for _, f := range files {
		if r.ledger.SeenAndRecord(ctx, f.Path) {
			r.log.Debug(ctx, "file already listed, skipping", logger.String("file", f.Path))
			continue
		}
		rec, err := rawrecord.Decode(f.Path)
		if err != nil {
			if errors.Is(err, rawrecord.ErrNoCompetitionID) {
				r.log.Warn(ctx, "skipping file without competition id", logger.String("file", f.Path))
				continue
			}
			r.report.Add(r.orch.Fail(ctx, f.ID, f.Path, err))
			continue
		}
		r.log.Debug(ctx, "decoded file",
			logger.String("file", f.Path),
			logger.Int64("competition_id", int64(rec.ID)),
			logger.String("variant", rec.Variant.String()))
		if rec.HasResults() {
			results = append(results, rec)
		}
		if rec.HasMarks() {
			marks = append(marks, rec)
		}
	}
	return results, marks
}

// pass feeds records through a fresh queue and worker pool and waits for
// every job to finish.
func (r *run) pass(ctx context.Context, p queue.Pass, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	cfg := r.svc.cfg
	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	pool := worker.NewPool(q, r.process, worker.WithCount(cfg.WorkerCount))
	pool.Start(ctx)

	r.log.Debug(ctx, "pass started",
		logger.String("pass", p.String()),
		logger.Int("jobs", len(records)))

	var err error
	for _, rec := range records {
		if err = enqueue(ctx, q, queue.Job{Pass: p, Record: rec}); err != nil {
			break
		}
	}
	_ = q.Close()
	pool.Wait()
	if err != nil {
		return fmt.Errorf("%s pass: %w", p, err)
	}
	return nil
}

func enqueue(ctx context.Context, q queue.Queue, j queue.Job) error { //nolint:gocritic // Job is passed by value for channel semantics
	for {
		err := q.Enqueue(ctx, j)
		if !errors.Is(err, queue.ErrQueueFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueBackoff):
		}
	}
}

// process is the worker processor of both passes.
func (r *run) process(ctx context.Context, j queue.Job) { //nolint:gocritic // Job is passed by value for channel semantics
	if r.orch.Degraded() {
		r.log.Debug(ctx, "store degraded, dropping job",
			logger.Int64("competition_id", int64(j.Record.ID)),
			logger.String("pass", j.Pass.String()))
		return
	}
	switch j.Pass {
	case queue.PassResults:
		r.report.Add(r.orch.IngestResults(ctx, *j.Record.Results, j.Record.Source))
	case queue.PassMarks:
		r.report.Add(r.orch.IngestMarks(ctx, *j.Record.Marks, j.Record.Source))
	}
}


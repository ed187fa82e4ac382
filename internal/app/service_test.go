package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	service "github.com/matteohorvath/ksis/internal/app"
	"github.com/matteohorvath/ksis/internal/config"
	"github.com/matteohorvath/ksis/internal/domain/ingest"
	"github.com/matteohorvath/ksis/internal/domain/model"
	"github.com/matteohorvath/ksis/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const resultsJSON = `{
  "title": "Tavaszi Kupa",
  "date": "2023.04.15",
  "location": "Budapest",
  "participantCount": 2,
  "judges": [
    {"id": "A", "name": "Kovács Péter", "location": "Budapest"},
    {"id": "B", "name": "Szabó Anna", "location": "Szeged"}
  ],
  "results": [
    {"name": "Nagy Ádám - Kiss Éva", "club": "Alfa TSE", "number": 7, "position": "1.", "section": "Döntő"},
    {"name": "Tóth Gábor - Fehér Dóra", "club": "Béta SE", "number": 8, "position": "2.", "section": "Döntő"}
  ]
}`

const marksJSON = `{
  "title": "Tavaszi Kupa pontozás",
  "sections": [
    {
      "title": "1. Forduló",
      "headers": ["Rsz.", "Samba/AB", "Összesen"],
      "rows": [{"Rsz.": "7", "Samba/AB": "XX", "Összesen": "2"}, {"Rsz.": "8", "Samba/AB": "X.", "Összesen": "1"}]
    },
    {
      "title": "Döntő",
      "headers": ["Rsz.", "Samba/AB"],
      "rows": [{"Rsz.": "7", "Samba/AB": "11"}, {"Rsz.": "8", "Samba/AB": "22"}]
    }
  ]
}`

const bundleJSON = `{
  "results": {
    "title": "Őszi Kupa",
    "judges": [{"id": "A", "name": "Kovács Péter"}],
    "results": [{"name": "Nagy Ádám - Kiss Éva", "club": "Alfa TSE", "number": 3, "position": "1."}]
  },
  "marks": {
    "sections": [{"title": "Döntő", "headers": ["Rsz.", "Rumba/A"], "rows": [{"Rsz.": "3", "Rumba/A": "1"}]}]
  }
}`

// orphanMarksJSON belongs to a competition that has no results file.
const orphanMarksJSON = `{
  "sections": [{"title": "Döntő", "headers": ["Rsz.", "Samba/A"], "rows": [{"Rsz.": "1", "Samba/A": "1"}]}]
}`

func writeFile(dir, name, content string) {
	So(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600), ShouldBeNil)
}

// corpus lays out a results dir and a data dir and returns a config over them.
func corpus(t *testing.T) *config.Config {
	data := t.TempDir()
	results := filepath.Join(data, "results")
	So(os.Mkdir(results, 0o755), ShouldBeNil)

	writeFile(results, "competition_results_1201.json", resultsJSON)
	writeFile(data, "competition_marks_1201.json", marksJSON)
	writeFile(data, "competition_bundle_1500.json", bundleJSON)
	writeFile(data, "competition_marks_1300.json", orphanMarksJSON)
	writeFile(data, "competition_marks_1400.json", `{"unexpected": true}`)
	writeFile(data, "notes.txt", "not a record")

	cfg := config.New()
	cfg.DatabasePath = ":memory:"
	cfg.ResultsDir = results
	cfg.DataDir = data
	cfg.WorkerCount = 2
	cfg.QueueSize = 2
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func TestService_New(t *testing.T) {
	Convey("Given a valid configuration", t, func() {
		cfg := config.New()
		cfg.DatabasePath = ":memory:"

		Convey("When creating the service", func() {
			svc, err := service.New(context.Background(), cfg)

			Convey("Then it should open the store with the built-in hierarchy", func() {
				So(err, ShouldBeNil)
				So(svc, ShouldNotBeNil)
				So(svc.Store(), ShouldNotBeNil)
				So(svc.Hierarchy().Rank("Döntő").IsKnown(), ShouldBeTrue)
				So(svc.Stop(context.Background()), ShouldBeNil)
			})
		})

		Convey("When round levels are configured", func() {
			cfg.RoundLevels = []config.RoundLevel{
				{Rank: 1, Names: []string{"Heat"}},
				{Rank: 2, Names: []string{"Final"}},
			}
			svc, err := service.New(context.Background(), cfg)
			So(err, ShouldBeNil)
			defer svc.Stop(context.Background())

			Convey("Then they replace the built-in table", func() {
				So(svc.Hierarchy().Len(), ShouldEqual, 2)
				So(svc.Hierarchy().Rank("Döntő").IsKnown(), ShouldBeFalse)
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := config.New()
		cfg.DatabasePath = ":memory:"

		Convey("Then an unknown couple key is rejected", func() {
			cfg.CoupleKey = "club"
			_, err := service.New(context.Background(), cfg)
			So(errors.Is(err, config.ErrInvalidCoupleKey), ShouldBeTrue)
		})

		Convey("Then duplicate round levels are rejected", func() {
			cfg.RoundLevels = []config.RoundLevel{
				{Rank: 1, Names: []string{"Final"}},
				{Rank: 1, Names: []string{"Heat"}},
			}
			_, err := service.New(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_Ingest(t *testing.T) {
	Convey("Given a corpus with results, marks, a bundle, an orphan and a broken file", t, func() {
		ctx := context.Background()
		svc, err := service.New(ctx, corpus(t))
		So(err, ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When ingesting", func() {
			report, err := svc.Ingest(ctx)
			So(err, ShouldBeNil)
			So(report, ShouldNotBeNil)

			Convey("Then every competition is reported once", func() {
				So(report.Totals.Competitions, ShouldEqual, 4)
				So(report.Totals.Done, ShouldEqual, 2)
				So(report.Totals.Deferred, ShouldEqual, 1)
				So(report.Totals.Failed, ShouldEqual, 1)
			})

			Convey("Then the complete competition reached done", func() {
				cr, ok := report.Get(1201)
				So(ok, ShouldBeTrue)
				So(cr.Stage, ShouldEqual, model.StageDone)
				So(cr.Processed[repository.KindRound], ShouldEqual, 2)

				c, err := svc.Store().Competition(ctx, 1201)
				So(err, ShouldBeNil)
				So(model.Stage(c.IngestStage), ShouldEqual, model.StageDone)

				rounds, err := svc.Store().Rounds(ctx, 1201)
				So(err, ShouldBeNil)
				So(rounds, ShouldHaveLength, 2)
				So(rounds[0].Title, ShouldEqual, "1. Forduló")
				So(rounds[0].Order, ShouldEqual, 1)
				So(rounds[1].Order, ShouldEqual, 2)
			})

			Convey("Then the bundle ran both passes", func() {
				cr, ok := report.Get(1500)
				So(ok, ShouldBeTrue)
				So(cr.Stage, ShouldEqual, model.StageDone)
			})

			Convey("Then the orphan marks stay deferred", func() {
				cr, ok := report.Get(1300)
				So(ok, ShouldBeTrue)
				So(cr.Deferred, ShouldBeTrue)
				So(cr.WarningCount(ingest.WarnMarksDeferred), ShouldEqual, 1)
			})

			Convey("Then the unrecognized record failed at start", func() {
				cr, ok := report.Get(1400)
				So(ok, ShouldBeTrue)
				So(cr.Failed(), ShouldBeTrue)
				So(*cr.FailedAt, ShouldEqual, model.StageStart)
				So(cr.WarningCount(ingest.WarnMalformedContainer), ShouldEqual, 1)
			})

			Convey("Then stats expose the last run", func() {
				stats := svc.GetStats()
				So(stats["runs"], ShouldEqual, 1)
				So(stats["running"], ShouldEqual, false)
				So(stats["lastRun"], ShouldNotBeNil)

				last, ok := svc.LastReport()
				So(ok, ShouldBeTrue)
				So(last.RunID, ShouldEqual, report.RunID)
			})

			Convey("And ingesting again", func() {
				before, err := svc.Store().Counts(ctx)
				So(err, ShouldBeNil)

				again, err := svc.Ingest(ctx)
				So(err, ShouldBeNil)

				Convey("Then no entity is duplicated", func() {
					after, err := svc.Store().Counts(ctx)
					So(err, ShouldBeNil)
					So(after, ShouldResemble, before)
					So(again.Totals.Done, ShouldEqual, 2)
					So(again.RunID, ShouldNotEqual, report.RunID)
				})
			})
		})
	})

	Convey("Given empty directories", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.DatabasePath = ":memory:"
		cfg.ResultsDir = filepath.Join(t.TempDir(), "missing")
		cfg.DataDir = t.TempDir()
		svc, err := service.New(ctx, cfg)
		So(err, ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then the run is empty and succeeds", func() {
			report, err := svc.Ingest(ctx)
			So(err, ShouldBeNil)
			So(report.Totals.Competitions, ShouldEqual, 0)
		})
	})
}

func TestService_Serve(t *testing.T) {
	Convey("Given a service", t, func() {
		cfg := config.New()
		cfg.DatabasePath = ":memory:"
		cfg.Addr = "127.0.0.1:0"
		svc, err := service.New(context.Background(), cfg)
		So(err, ShouldBeNil)
		defer svc.Stop(context.Background())

		Convey("When the serve context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			Convey("Then the server shuts down cleanly", func() {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
				case <-time.After(5 * time.Second):
					So("serve did not return", ShouldBeEmpty)
				}
			})
		})
	})
}

package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matteohorvath/ksis/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "competition_data")
				convey.So(cfg.ResultsDir, convey.ShouldEqual, "competition_data/results")
				convey.So(cfg.RoundLevels, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KSIS_ADDR", ":8080")
			_ = os.Setenv("KSIS_WORKER_COUNT", "16")
			_ = os.Setenv("KSIS_STORE_TIMEOUT", "250ms")
			_ = os.Setenv("KSIS_COUPLE_KEY", "name_club")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.StoreTimeout, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.CoupleKey, convey.ShouldEqual, config.CoupleKeyNameClub)
			})
		})

		convey.Convey("When loading config with a YAML file carrying round levels", func() {
			tmpFile := createTempConfigFile(`
database_path: ":memory:"
round_parallelism: 2
round_levels:
  - rank: 1
    names: ["Elődöntő", "Semifinal"]
  - rank: 2
    names: ["Döntő", "Final"]
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KSIS_CONFIG", tmpFile)
			_ = os.Setenv("KSIS_ROUND_PARALLELISM", "8")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values load and env overrides them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DatabasePath, convey.ShouldEqual, ":memory:")
				convey.So(cfg.RoundParallelism, convey.ShouldEqual, 8)
				convey.So(cfg.RoundLevels, convey.ShouldHaveLength, 2)
				convey.So(cfg.RoundLevels[1].Rank, convey.ShouldEqual, 2)
				convey.So(cfg.RoundLevels[1].Names, convey.ShouldResemble, []string{"Döntő", "Final"})
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KSIS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("KSIS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file empties the address", func() {
			tmpFile := createTempConfigFile(`addr: ""`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KSIS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("KSIS_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the placeholder is overridden with two characters", func() {
			_ = os.Setenv("KSIS_NO_MARK_PLACEHOLDER", "--")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidPlaceholder), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"KSIS_CONFIG", "KSIS_ADDR", "KSIS_WORKER_COUNT", "KSIS_STORE_TIMEOUT",
		"KSIS_COUPLE_KEY", "KSIS_ROUND_PARALLELISM", "KSIS_NO_MARK_PLACEHOLDER",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "ksis-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

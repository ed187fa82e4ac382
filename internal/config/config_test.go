package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/matteohorvath/ksis/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DatabasePath, convey.ShouldEqual, "ksis.db")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.RoundParallelism, convey.ShouldEqual, 4)
			convey.So(cfg.StoreTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.CoupleKey, convey.ShouldEqual, config.CoupleKeyName)
			convey.So(cfg.Placeholder(), convey.ShouldEqual, '.')
			convey.So(cfg.SlowQueryThreshold(), convey.ShouldEqual, 200*time.Millisecond)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the placeholder is longer than one character", func() {
			cfg.NoMarkPlaceholder = ".."
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidPlaceholder), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the placeholder is a multi-byte rune", func() {
			cfg.NoMarkPlaceholder = "–"

			convey.Convey("Then it is accepted and decoded as one rune", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.Placeholder(), convey.ShouldEqual, '–')
			})
		})

		convey.Convey("When the couple key policy is unknown", func() {
			cfg.CoupleKey = "club"

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidCoupleKey), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a concurrency knob is not positive", func() {
			cfg.RoundParallelism = 0

			convey.Convey("Then it is an invalid config", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the store timeout is zero", func() {
			cfg.StoreTimeout = 0

			convey.Convey("Then it is an invalid config", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/mattn/go-colorable"
	gormlogger "gorm.io/gorm/logger"
)

type sqlLogger struct {
	log  logger.Logger
	slow time.Duration
}

func newSQLLogger(l logger.Logger, o gormOptions) gormlogger.Interface {
	if o.debug {
		return gormlogger.New(
			log.New(colorable.NewColorableStderr(), "", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             o.slowThreshold,
				LogLevel:                  gormlogger.Info,
				IgnoreRecordNotFoundError: false,
				Colorful:                  true,
			},
		)
	}
	return &sqlLogger{log: l, slow: o.slowThreshold}
}

func (l *sqlLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *sqlLogger) Info(ctx context.Context, msg string, data ...any) {
	l.log.Info(ctx, "gorm info", logger.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log.Warn(ctx, "gorm warn", logger.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *sqlLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log.Error(ctx, "gorm error", logger.String("msg", fmt.Sprintf(msg, data...)))
}

func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error(ctx, "sql error",
			logger.Duration("elapsed", elapsed),
			logger.Int64("rows", rows),
			logger.String("sql", sql),
			logger.Error(err))
	case l.slow > 0 && elapsed > l.slow:
		sql, rows := fc()
		l.log.Warn(ctx, "slow sql",
			logger.Duration("elapsed", elapsed),
			logger.Int64("rows", rows),
			logger.String("sql", sql))
	}
}

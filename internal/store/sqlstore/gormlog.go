package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// gormLogger routes gorm's query log into the application logger.
type gormLogger struct {
	log   logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func NewGormLogger(log logger.Logger, slow time.Duration) gormlogger.Interface {
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &gormLogger{log: log, level: gormlogger.Warn, slow: slow}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Debug("gorm", logger.String("msg", fmt.Sprintf(msg, args...)))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warn("gorm", logger.String("msg", fmt.Sprintf(msg, args...)))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Error("gorm", logger.String("msg", fmt.Sprintf(msg, args...)))
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		query, rows := fc()
		g.log.Error("sql query failed",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	case elapsed > g.slow && g.level >= gormlogger.Warn:
		query, rows := fc()
		g.log.Warn("slow sql query",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed))
	case g.level >= gormlogger.Info:
		query, rows := fc()
		g.log.Debug("sql query",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed))
	}
}

// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	gormLogger "gorm.io/gorm/logger"
)

// gormLog routes gorm diagnostics into the zerolog diagnostics log.
type gormLog struct {
	slow time.Duration
}

func newGormLogger() gormLogger.Interface {
	return &gormLog{slow: 300 * time.Millisecond}
}

func (l *gormLog) LogMode(gormLogger.LogLevel) gormLogger.Interface { return l }

func (l *gormLog) Info(_ context.Context, msg string, data ...any) {
	log.Info().Str("component", "journal").Msgf(msg, data...)
}

func (l *gormLog) Warn(_ context.Context, msg string, data ...any) {
	log.Warn().Str("component", "journal").Msgf(msg, data...)
}

func (l *gormLog) Error(_ context.Context, msg string, data ...any) {
	log.Error().Str("component", "journal").Msgf(msg, data...)
}

func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil:
		log.Error().Str("component", "journal").Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Msg(sql)
	case l.slow > 0 && elapsed > l.slow:
		log.Debug().Str("component", "journal").Dur("elapsed", elapsed).Msg("slow query: " + sql)
	default:
		log.Trace().Str("component", "journal").Dur("elapsed", elapsed).Int64("rows", rows).Msg(sql)
	}
}

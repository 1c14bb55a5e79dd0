// Package logging implements application/logging.Logger on top of the
// standard library logger, line-buffered to stderr (spec §5 "Shared
// resources").
package logging

import (
	"log"

	"github.com/sh0rch/nf-wgobfs/application/logging"
)

// LogLogger writes through the stdlib log package's default logger.
type LogLogger struct{}

// NewLogLogger returns a ready-to-use Logger.
func NewLogLogger() logging.Logger {
	return &LogLogger{}
}

func (l *LogLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

var _ logging.Logger = (*LogLogger)(nil)

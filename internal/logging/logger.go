package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process-wide console logger at the given level and
// installs it as the global zerolog logger.
func NewLogger(level zerolog.Level) *zerolog.Logger {
	out := zerolog.NewConsoleWriter()
	logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return &logger
}

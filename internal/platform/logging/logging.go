// Package logging builds the process-wide hclog logger.
package logging

import (
	"io"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	name := opts.Name
	if name == "" {
		name = "gametune"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

// OrNull returns logger, or a discarding logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}

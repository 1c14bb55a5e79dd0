package cmd

import (
	"errors"

	"github.com/sh0rch/nf-wgobfs/infrastructure/supervisor"
)

// errConfig marks a configuration or startup-argument failure (exit
// code 1). Queue-bind and runtime failures are already distinguishable
// via supervisor.ErrQueueBind/ErrRuntime.
var errConfig = errors.New("configuration error")

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrQueueBind):
		return ExitQueueBind
	case errors.Is(err, supervisor.ErrRuntime):
		return ExitRuntimeError
	case errors.Is(err, errConfig):
		return ExitConfigError
	default:
		return ExitConfigError
	}
}

// Package debug implements protocol tracing, gated behind the
// conventional WAYLAND_DEBUG environment variable.
package debug

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
)

var logger = log.New(os.Stderr)

var debug = func(string, ...any) {}

func init() {
	logger.SetPrefix("wire")

	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err != nil {
		return
	}
	if debugLevel > 0 {
		logger.SetLevel(log.DebugLevel)
		debug = func(str string, args ...any) { logger.Debugf(str, args...) }
	}
}

func Printf(str string, args ...any) {
	debug(str, args...)
}

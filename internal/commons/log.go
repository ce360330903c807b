// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package commons

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ConfigureLog installs a tint handler as the default slog logger.
// Colors are only used when stdout is a terminal.
func ConfigureLog(level slog.Level) {
	ConfigureLogWithColor(level, true)
}

func ConfigureLogWithColor(level slog.Level, color bool) {
	logOpts := new(tint.Options)
	logOpts.Level = level
	logOpts.AddSource = level <= slog.LevelDebug
	logOpts.NoColor = !color || !isatty.IsTerminal(os.Stdout.Fd())
	logOpts.TimeFormat = "[15:04:05.000]"
	handler := tint.NewHandler(os.Stdout, logOpts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

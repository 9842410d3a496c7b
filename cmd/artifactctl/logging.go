package main

import (
	"log/slog"
	"os"
)

// logger emits row-level and unsupported-feature warnings: a single corrupt
// entry or an unimplemented codec variant is logged and skipped rather than
// aborting the whole decode. Like printInfo, the warnings are suppressed by
// --quiet; --verbose does not affect them.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func warnRow(artifact string, err error) {
	if quiet {
		return
	}
	logger.Warn("row skipped", "artifact", artifact, "error", err)
}

func warnUnsupported(artifact, feature string, err error) {
	if quiet {
		return
	}
	logger.Warn("unsupported feature, raw bytes preserved", "artifact", artifact, "feature", feature, "error", err)
}

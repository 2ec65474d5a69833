// Package log provides the leveled, printf-style logging used by the workflow engine.
//
// Two implementations ship with the package:
//
//   - DefaultLogger, backed by the standard library logger
//   - GologLogger, backed by github.com/kataras/golog (the default for the CLI and server)
//
// Both filter by LogLevel before formatting. NoOpLogger discards output.
//
// # Example Usage
//
//	logger, err := log.New("golog", log.LogLevelDebug)
//	if err != nil {
//		return err
//	}
//	runnable = runnable.WithLogger(logger)
//
// A package-level logger is available for code that has no logger injected:
//
//	log.SetLogLevel(log.LogLevelWarn)
//	log.Warn("step %s is unreachable", name)
package log

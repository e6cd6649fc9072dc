// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for the command line tools: a
// colored console encoding for operators running an import by hand and a JSON
// encoding for unattended sync runs at application startup.
//
// # Run Correlation
//
// Every import or sync pass gets a run id. The WithRun helper attaches it to
// the logger so all lines emitted by one pass (including per-row write
// failures) can be grouped together.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log = logger.WithRun(log, runID)
//	log.Info("Sync started")
package logger

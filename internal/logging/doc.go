// Package logging provides structured logging with per-module log levels.
//
// Initialize once at startup, then ask for a module logger:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"session":   "debug",
//			"transport": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("session")
//	logger.Warn("Discarding unmatched reply", "camera", 1, "socket", 2)
//
// Records go to stderr as text or JSON so command output on stdout stays
// clean. With Journal set, records are also sent to journald when it is
// reachable:
//
//	journalctl -t viscago MODULE=session
package logging

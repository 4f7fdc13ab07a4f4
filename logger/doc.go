// Package logger provides a process-wide leveled logger built on zap, with
// a rotating file sink, an optional console sink and call-site attribution.
//
// # Features
//
//   - Global package-level functions backed by one lazily built instance
//   - Seven ordered levels: TRACE, DEBUG, INFO, SUCCESS, WARNING, ERROR, CRITICAL
//   - Rotating file output via lumberjack, with size rotation and age retention
//   - Console output on stderr when ENV=dev (the default)
//   - Named formats (default, simple, detailed) and JSON serialization
//   - Caller attribution [dir/file.go:line@package.Function] on every entry
//   - Structured logging with key-value pairs and Fields maps
//   - Runtime level changes and full reconfiguration via Init/Reset
//   - Journald priority prefixes on the console when JOURNAL_STREAM is set
//
// # Usage
//
// Use it directly; the first call builds the logger from the environment:
//
//	logger.Infof("server started on port %d", 8080)
//	logger.Errorf("failed to connect: %v", err)
//
// Or configure it explicitly at startup:
//
//	if err := logger.Init(logger.Config{Level: logger.InfoLevel, Dir: "/var/log/app"}); err != nil {
//	    panic(err)
//	}
//	defer logger.Close()
//
// Use structured logging with key-value pairs:
//
//	logger.InfoKV("request completed",
//	    "duration_ms", 42,
//	    "status", 200,
//	    "path", "/api/users")
//
// # Configuration
//
// Explicit Config fields win over environment variables, which win over the
// built-in defaults:
//
//	ENV=prod LOG_LEVEL=INFO LOG_FORMAT=json LOG_DIR=/var/log/app ./myapp
//
// Recognized variables: ENV, LOG_LEVEL, LOG_FORMAT, LOG_FILE, LOG_DIR,
// LOG_ROTATION_SIZE, LOG_RETENTION_DAYS, LOG_COMPRESS, LOG_COLOR.
//
// # Attribution
//
// Each entry names the first stack frame outside this package. When a
// helper should not be reported, attribute explicitly:
//
//	logger.CallFrom(handleRequest).Info("handled")
//
// Logging calls never panic and never return errors; sink failures are
// reported on stderr.
package logger

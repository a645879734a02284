// Package logging wraps log/slog with the typed attribute helpers, shared
// field names, and context plumbing used across the pipeline. All components
// log through loggers constructed here so output stays uniform whether it is
// going to a terminal, a log file, or a test sink.
package logging

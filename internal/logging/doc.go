// Package logging provides a simple leveled logging interface for the
// streaming gateway, backed by zerolog.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Callers that need structured fields (session id, mode, outcome) on a
// single log line should use Logger() directly instead of the Printf-style
// helpers.
package logging

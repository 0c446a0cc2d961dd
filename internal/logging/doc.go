// Package logging provides a simple leveled logging interface for nyapix.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read once from the LOG_LEVEL (or DEBUG) environment variable
// and can be overridden with SetLevel.
package logging

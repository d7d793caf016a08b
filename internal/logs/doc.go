// Package logs reads the JSON log file written by the logging package.
//
// Tail returns the last lines of the file, optionally filtered by level or
// session, and reports the byte offset to continue from. Follow polls from
// that offset until its context ends, which backs `cddasrc logs --follow`.
package logs

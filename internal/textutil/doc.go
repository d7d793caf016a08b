// Package textutil cleans disc-supplied text for display and file names.
//
// CD-TEXT and user-entered titles routinely carry padding, control bytes,
// and characters that are unsafe in paths. CleanText normalizes a value for
// tags and tables; SanitizeFileName additionally makes it safe as a single
// path segment.
package textutil

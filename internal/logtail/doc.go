// Package logtail reads the end of the client's own log file for the
// in-app log view.
//
// Read keeps a ring buffer of maxLines entries, so memory stays
// O(maxLines) regardless of file size and the file is scanned once. A
// missing file is not an error: the log view simply starts empty.
//
// FormatLine turns the JSON lines written by the logging package back into
// the one-line console form (time, level, message, fields). Anything that
// is not a JSON object, such as output from an older build, is shown as-is.
package logtail

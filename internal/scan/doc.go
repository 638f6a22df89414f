// Package scan provides cursor-based delimiter extraction over raw page markup.
//
// Pages are never parsed into a tree. Instead every value is located by
// searching for a literal open token from an explicit cursor and reading up to
// a close token. A Cursor is always either NotFound or an offset within the
// buffer, and every operation returns the new cursor instead of keeping it
// hidden. Buffers are read-only; nothing in this package mutates them.
//
// Reads are bounded by MaxFieldLen: when an open token has no nearby close
// token the read fails with ErrFieldTooLong rather than returning half the
// document. Repeated-row loops use Progress to make sure the row cursor keeps
// moving forward.
package scan

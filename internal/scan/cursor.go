package scan

import "bytes"

// Buffer is one fetched page. Extraction never modifies it.
type Buffer []byte

// Cursor is an offset into a Buffer.
type Cursor int

// NotFound is the terminal cursor returned when a token is absent.
const NotFound Cursor = -1

// Valid reports whether c points inside buf (inclusive of the end offset).
func (c Cursor) Valid(buf Buffer) bool {
	return c >= 0 && int(c) <= len(buf)
}

// Find returns the offset of the first occurrence of token at or after from.
func Find(buf Buffer, token string, from Cursor) Cursor {
	if !from.Valid(buf) || token == "" {
		return NotFound
	}
	i := bytes.Index(buf[from:], []byte(token))
	if i < 0 {
		return NotFound
	}
	return from + Cursor(i)
}

// FindWithin is Find limited to matches that start before limit.
func FindWithin(buf Buffer, token string, from, limit Cursor) Cursor {
	c := Find(buf, token, from)
	if c == NotFound || (limit != NotFound && c >= limit) {
		return NotFound
	}
	return c
}

// FindBefore returns the offset of the last occurrence of token that starts
// before the given offset. It is used to walk back from an interior marker to
// the tag that opens its row.
func FindBefore(buf Buffer, token string, before Cursor) Cursor {
	if !before.Valid(buf) || token == "" {
		return NotFound
	}
	i := bytes.LastIndex(buf[:before], []byte(token))
	if i < 0 {
		return NotFound
	}
	return Cursor(i)
}

// After returns the cursor just past token when token was found at c.
func After(c Cursor, token string) Cursor {
	if c == NotFound {
		return NotFound
	}
	return c + Cursor(len(token))
}

// Slice returns buf[start:end] as a string, clamped to the buffer.
func Slice(buf Buffer, start, end Cursor) string {
	if start < 0 {
		start = 0
	}
	if int(end) > len(buf) {
		end = Cursor(len(buf))
	}
	if start >= end {
		return ""
	}
	return string(buf[start:end])
}

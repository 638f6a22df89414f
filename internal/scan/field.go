package scan

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxFieldLen bounds the length of any extracted value. A longer value means
// the open token was not followed by its close token nearby.
const MaxFieldLen = 99

// CellClose terminates table cell values.
const CellClose = "</td>"

// ReadField locates open at or after from and returns the text up to the next
// close. On success the returned cursor is the end of close, which is always
// strictly greater than from. On failure the cursor is NotFound and the
// caller keeps its previous cursor.
func ReadField(buf Buffer, open string, from Cursor, close string) (string, Cursor, error) {
	at := Find(buf, open, from)
	if at == NotFound {
		return "", NotFound, fmt.Errorf("%w: %q", ErrStructureAbsent, open)
	}
	start := After(at, open)
	end := Find(buf, close, start)
	if end == NotFound {
		return "", NotFound, fmt.Errorf("%w: %q", ErrStructureAbsent, close)
	}
	if int(end-start) > MaxFieldLen {
		return "", NotFound, fmt.Errorf("%w: %q spans %d bytes", ErrFieldTooLong, open, end-start)
	}
	return Slice(buf, start, end), After(end, close), nil
}

// ReadCell is ReadField terminated by </td>.
func ReadCell(buf Buffer, open string, from Cursor) (string, Cursor, error) {
	return ReadField(buf, open, from, CellClose)
}

// ReadInt reads a cell and parses its trimmed content as an integer.
func ReadInt(buf Buffer, open string, from Cursor) (int, Cursor, error) {
	raw, next, err := ReadCell(buf, open, from)
	if err != nil {
		return 0, NotFound, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NotFound, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	return n, next, nil
}

// Row reads consecutive fields of one table row. It keeps the first error and
// turns every later read into a no-op, so a row can be read top to bottom and
// checked once. A Row belongs to a single caller and a single row; its cursor
// is always available through Cursor.
type Row struct {
	buf Buffer
	cur Cursor
	err error
}

// NewRow starts reading at start.
func NewRow(buf Buffer, start Cursor) *Row {
	r := &Row{buf: buf, cur: start}
	if !start.Valid(buf) {
		r.err = fmt.Errorf("%w: row cursor %d", ErrStructureAbsent, start)
	}
	return r
}

// Field reads the value between open and close.
func (r *Row) Field(open, close string) string {
	if r.err != nil {
		return ""
	}
	v, next, err := ReadField(r.buf, open, r.cur, close)
	if err != nil {
		r.err = err
		return ""
	}
	r.cur = next
	return v
}

// Cell reads a value terminated by </td>.
func (r *Row) Cell(open string) string {
	return r.Field(open, CellClose)
}

// Text reads a cell and trims surrounding whitespace.
func (r *Row) Text(open string) string {
	return strings.TrimSpace(r.Cell(open))
}

// Int reads a numeric cell.
func (r *Row) Int(open string) int {
	if r.err != nil {
		return 0
	}
	n, next, err := ReadInt(r.buf, open, r.cur)
	if err != nil {
		r.err = err
		return 0
	}
	r.cur = next
	return n
}

// Optional reads a field that may legitimately be missing. A missing,
// overlong or empty value reports ok=false and leaves the cursor and error
// state untouched.
func (r *Row) Optional(open, close string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, next, err := ReadField(r.buf, open, r.cur, close)
	if err != nil {
		return "", false
	}
	r.cur = next
	v = strings.TrimSpace(v)
	return v, v != ""
}

// OptionalBefore is Optional restricted to an open token that occurs before
// the next stop token, so a missing value never borrows one from a later
// element.
func (r *Row) OptionalBefore(open, close, stop string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	limit := Find(r.buf, stop, r.cur)
	if FindWithin(r.buf, open, r.cur, limit) == NotFound {
		return "", false
	}
	return r.Optional(open, close)
}

// Seek moves the cursor to the next occurrence of token without consuming it.
func (r *Row) Seek(token string) {
	if r.err != nil {
		return
	}
	c := Find(r.buf, token, r.cur)
	if c == NotFound {
		r.err = fmt.Errorf("%w: %q", ErrStructureAbsent, token)
		return
	}
	r.cur = c
}

// Cursor returns the position after the last successful read.
func (r *Row) Cursor() Cursor {
	return r.cur
}

// Err returns the first error hit while reading the row.
func (r *Row) Err() error {
	return r.err
}

// Progress guards a repeated-row loop against running in place. Markup
// tokens repeat in unrelated contexts, so forward motion is checked instead
// of assumed.
type Progress struct {
	last Cursor
}

// NewProgress returns a guard that accepts any valid first row.
func NewProgress() *Progress {
	return &Progress{last: NotFound}
}

// Advance records the cursor of the next row. It fails with
// ErrNonTerminatingLoop unless c is strictly greater than the previous row.
func (p *Progress) Advance(c Cursor) error {
	if c <= p.last {
		return fmt.Errorf("%w: row cursor %d did not pass %d", ErrNonTerminatingLoop, c, p.last)
	}
	p.last = c
	return nil
}

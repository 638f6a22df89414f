package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadField(t *testing.T) {
	buf := Buffer(`<td class="a">12</td><td class="b">Jan Jansen (&nbsp;7.4321)</a>`)

	tests := []struct {
		name      string
		open      string
		close     string
		from      Cursor
		wantValue string
		wantErr   error
	}{
		{"cell value", `<td class="a">`, CellClose, 0, "12", nil},
		{"custom close", `<td class="b">`, " (", 0, "Jan Jansen", nil},
		{"rating between nbsp and anchor", "nbsp;", ")</a>", 0, "7.4321", nil},
		{"open absent", `<td class="c">`, CellClose, 0, "", ErrStructureAbsent},
		{"close absent", `<td class="b">`, "</th>", 0, "", ErrStructureAbsent},
		{"open before cursor", `<td class="a">`, CellClose, 5, "", ErrStructureAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, err := ReadField(buf, tt.open, tt.from, tt.close)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, NotFound, next)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got)
			assert.Greater(t, next, tt.from)
			assert.LessOrEqual(t, len(got), MaxFieldLen)
		})
	}
}

func TestReadFieldCursorIsEndOfClose(t *testing.T) {
	buf := Buffer("<td>x</td><td>y</td>")

	v, next, err := ReadCell(buf, "<td>", 0)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	assert.Equal(t, Cursor(strings.Index(string(buf), "</td>")+len("</td>")), next)

	v, next, err = ReadCell(buf, "<td>", next)
	require.NoError(t, err)
	assert.Equal(t, "y", v)
	assert.Equal(t, Cursor(len(buf)), next)
}

func TestReadFieldTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxFieldLen+1)
	buf := Buffer("<td>" + long + "</td>")

	_, next, err := ReadCell(buf, "<td>", 0)
	require.ErrorIs(t, err, ErrFieldTooLong)
	assert.Equal(t, NotFound, next)

	atBound := Buffer("<td>" + strings.Repeat("x", MaxFieldLen) + "</td>")
	v, _, err := ReadCell(atBound, "<td>", 0)
	require.NoError(t, err)
	assert.Len(t, v, MaxFieldLen)
}

func TestReadInt(t *testing.T) {
	buf := Buffer("<td> 14 </td><td>x</td>")

	n, next, err := ReadInt(buf, "<td>", 0)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	_, _, err = ReadInt(buf, "<td>", next)
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestRowStickyError(t *testing.T) {
	buf := Buffer("<td>a</td><td>b</td>")
	r := NewRow(buf, 0)

	assert.Equal(t, "a", r.Cell("<td>"))
	before := r.Cursor()
	assert.Equal(t, "", r.Cell("<th>"))
	require.ErrorIs(t, r.Err(), ErrStructureAbsent)
	assert.Equal(t, before, r.Cursor())

	// Later reads are no-ops once the row failed.
	assert.Equal(t, "", r.Cell("<td>"))
	assert.Equal(t, before, r.Cursor())
}

func TestRowOptional(t *testing.T) {
	buf := Buffer(`<td x>+0.0123</td><td y> </td><td z>end</td>`)
	r := NewRow(buf, 0)

	v, ok := r.Optional("<td x>", CellClose)
	assert.True(t, ok)
	assert.Equal(t, "+0.0123", v)

	_, ok = r.Optional("<td missing>", CellClose)
	assert.False(t, ok)
	require.NoError(t, r.Err())

	_, ok = r.Optional("<td y>", CellClose)
	assert.False(t, ok, "blank value counts as absent")

	assert.Equal(t, "end", r.Cell("<td z>"))
	require.NoError(t, r.Err())
}

func TestRowSeek(t *testing.T) {
	buf := Buffer("<tr>head</tr><tr>body</tr>")
	r := NewRow(buf, 1)

	r.Seek("<tr>")
	require.NoError(t, r.Err())
	assert.Equal(t, Cursor(13), r.Cursor())

	r.Seek("<table>")
	assert.ErrorIs(t, r.Err(), ErrStructureAbsent)
}

func TestNewRowInvalidStart(t *testing.T) {
	r := NewRow(Buffer("abc"), NotFound)
	assert.ErrorIs(t, r.Err(), ErrStructureAbsent)
}

func TestProgress(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(0))
	require.NoError(t, p.Advance(10))
	assert.ErrorIs(t, p.Advance(10), ErrNonTerminatingLoop)
	assert.ErrorIs(t, p.Advance(3), ErrNonTerminatingLoop)
	require.NoError(t, p.Advance(11))
}

func TestRowErrorUnwrap(t *testing.T) {
	err := &RowError{Pass: "league", Row: 42, Err: ErrFieldTooLong}

	assert.ErrorIs(t, err, ErrFieldTooLong)
	assert.Contains(t, err.Error(), "league row at 42")
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Neem ballen mee", "Neem ballen mee"},
		{" koffie &amp; thee ", "koffie & thee"},
		{"&lt;b>vet&lt;/b> genoeg", "vet genoeg"},
		{"<i>schuin</i>", "schuin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.raw))
		})
	}
}

func TestRowOptionalBefore(t *testing.T) {
	buf := Buffer(`<a>Piet (</a><a>Jan (&nbsp;7.1)</a>`)
	r := NewRow(buf, 0)

	_, ok := r.OptionalBefore("nbsp;", ")</a>", "</a>")
	assert.False(t, ok, "value of the next anchor must not be borrowed")
	assert.Equal(t, Cursor(0), r.Cursor())

	r.Seek("Jan")
	v, ok := r.OptionalBefore("nbsp;", ")</a>", "</a>")
	assert.True(t, ok)
	assert.Equal(t, "7.1", v)
}

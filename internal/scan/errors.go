package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrStructureAbsent means a marker was not present. The field becomes
	// "not present" and extraction carries on.
	ErrStructureAbsent = errors.New("structure absent")

	// ErrFieldTooLong means an open token had no close token within
	// MaxFieldLen. The field or row is abandoned, not retried.
	ErrFieldTooLong = errors.New("field too long")

	// ErrNotNumeric means a numeric column held something else.
	ErrNotNumeric = errors.New("field not numeric")

	// ErrNonTerminatingLoop means a repeated-row scan failed to advance.
	// It is fatal to the current pass only.
	ErrNonTerminatingLoop = errors.New("non-terminating row loop")

	// ErrRequiredSectionMissing means a marker the whole page depends on is
	// absent. The entity is skipped; retrying reproduces the same markup.
	ErrRequiredSectionMissing = errors.New("required section missing")
)

// RowError records a row that was abandoned during a pass.
type RowError struct {
	Pass string
	Row  Cursor
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row at %d: %v", e.Pass, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

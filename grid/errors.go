package grid

import (
	"fmt"
)

// FormatError indicates the source could not be parsed as a polygon
// container, or parsed to an empty collection.
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unreadable grid source %s: %s", e.Source, e.Reason)
}

// ProjectionError indicates the source coordinate reference system could not
// be normalized to geographic lon/lat.
type ProjectionError struct {
	Source string
	SRID   int
	Reason string
}

func (e *ProjectionError) Error() string {
	if e.SRID != 0 {
		return fmt.Sprintf("cannot normalize CRS of %s (srid %d): %s", e.Source, e.SRID, e.Reason)
	}
	return fmt.Sprintf("cannot normalize CRS of %s: %s", e.Source, e.Reason)
}

// SchemaMismatchError indicates an attribute required by a mandatory display
// field is absent from the dataset schema, e.g. no score column at all when
// continuous coloring is requested. Optional columns never raise this; they
// are skipped.
type SchemaMismatchError struct {
	Attribute string
	Have      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("required attribute %q absent from schema %v", e.Attribute, e.Have)
}

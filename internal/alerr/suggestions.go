package alerr

// NewUnknownTableError reports a reference to a table that is not in the schema,
// suggesting the closest known name.
func NewUnknownTableError(ref string, known []string) *Error {
	e := Newf(ErrInvalidReference, "unknown table %q", ref).With("reference", ref)
	if hint := SuggestSimilar(ref, known); hint != "" {
		e.WithHelp(hint)
	}
	return e
}

// NewUnknownColumnError reports a reference to a column missing from table.
func NewUnknownColumnError(table, column string, known []string) *Error {
	e := Newf(ErrInvalidReference, "unknown column %q", column).
		WithTable(table).
		WithColumn(column)
	if hint := SuggestSimilar(column, known); hint != "" {
		e.WithHelp(hint)
	}
	return e
}

// NewWriteError wraps a writer failure for one generated file.
func NewWriteError(err error, table, file string) *Error {
	return Wrap(ErrWriteFailed, err, "failed to write model file").
		WithTable(table).
		WithFile(file, 0)
}

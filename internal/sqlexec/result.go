package sqlexec

// Row is one result row with its values in column order.
type Row struct {
	Columns []string
	Values  []any
}

// Result holds either the rows of a data-returning statement or the number
// of rows changed by any other statement. Columns is nil in the latter case.
type Result struct {
	Columns      []string
	Rows         []Row
	AffectedRows int64
}

// HasRows reports whether the statement returned a result set.
func (r *Result) HasRows() bool {
	return r.Columns != nil
}

// String renders the result the way tool responses carry it.
func (r *Result) String() string {
	if r.HasRows() {
		return FormatRows(r.Rows)
	}
	return FormatRows([]Row{{
		Columns: []string{"affected_rows"},
		Values:  []any{r.AffectedRows},
	}})
}

// QueryError is returned when SQLite rejects a statement.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

package cleaner

import "fmt"

// QueryError reports a database failure in listing mode. No output is
// written when a QueryError occurs.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("listing query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// CleanupError reports a database failure inside a cleanup transaction. The
// transaction is rolled back in full before the error is returned, so no
// partial deletion is ever visible.
type CleanupError struct {
	Table string
	Err   error
}

func (e *CleanupError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("cleanup of table %s failed: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("cleanup failed: %v", e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

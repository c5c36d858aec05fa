package persistence

import "fmt"

// WriteError reports that the durable write step of a state commit failed.
// The transaction is rolled back before this is returned; the coordinator
// never retries on its own.
type WriteError struct {
	Dynasty string
	Step    string // "begin", "precheck", "write", "verify", "commit"
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("state commit for %s failed at %s: %v", e.Dynasty, e.Step, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConsistencyError reports drift between the expected and actual durable
// state, detected either before the write (another writer touched the row)
// or by the read-back verification after it.
type ConsistencyError struct {
	Dynasty  string
	Expected string
	Actual   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("durable state for %s inconsistent: expected %s, found %s", e.Dynasty, e.Expected, e.Actual)
}

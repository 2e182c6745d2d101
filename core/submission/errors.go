// Package submission implements the request facades that validate input,
// render a batch script, persist the workflow and job records, and hand
// the script to the scheduler.
package submission

import "fmt"

// ValidationError rejects a malformed submission request. Field names the
// offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

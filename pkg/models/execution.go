package models

// ExecutionAttempt records one try of the execution loop. Error is empty
// for the succeeding attempt.
type ExecutionAttempt struct {
	SQL   string
	Error string
}

// ExecutionOutcome is the terminal state of the execution loop. On success
// Query holds the statement that succeeded and Rendered the text table of
// its results. On exhaustion LastSQL holds the final repaired statement,
// which may never have been executed, and LastError the last execution
// error observed.
type ExecutionOutcome struct {
	Succeeded bool
	Query     GeneratedQuery
	Rendered  string
	RowCount  int
	Attempts  []ExecutionAttempt
	LastSQL   string
	LastError string
}

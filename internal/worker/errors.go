package worker

import (
	"errors"
	"fmt"
)

// ErrorKind tells the queue whether a failed task is worth another attempt.
type ErrorKind int

const (
	// Retryable failures go back to the queue's own retry schedule.
	Retryable ErrorKind = iota
	// Fatal failures are archived without further attempts.
	Fatal
)

func (k ErrorKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "retryable"
}

// TaskError is the failure result of processing one evaluation task.
type TaskError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func fatal(op string, err error) *TaskError {
	return &TaskError{Kind: Fatal, Op: op, Err: err}
}

func retryable(op string, err error) *TaskError {
	return &TaskError{Kind: Retryable, Op: op, Err: err}
}

// IsFatal reports whether err carries a Fatal TaskError.
func IsFatal(err error) bool {
	var te *TaskError
	return errors.As(err, &te) && te.Kind == Fatal
}

// Outcome is the terminal result of a successfully processed task.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeRequeued         Outcome = "requeued"
	OutcomeRemovedDuplicate Outcome = "removed-duplicate"
	OutcomeSkippedDuplicate Outcome = "skipped-duplicate"
)

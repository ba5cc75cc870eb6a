package manager

import (
	"errors"
	"fmt"

	"inferd/internal/engine"
	"inferd/internal/iemodel"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// ErrTooBusy constructs a backpressure error for modelID.
func ErrTooBusy(modelID string) error { return tooBusyError{modelID: modelID} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error when a requested model id is not present in the registry.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing inference runtime so the HTTP
// layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed
// runtime, including engine.ErrUnavailable from a backend.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e) || engine.IsUnavailable(err)
}

// budgetExceededError means a model cannot fit the memory budget even after
// evicting every idle instance.
type budgetExceededError struct {
	requiredMB int
	budgetMB   int
}

func (e budgetExceededError) Error() string {
	return fmt.Sprintf("memory budget exceeded: need %d MB, budget %d MB", e.requiredMB, e.budgetMB)
}

// IsBudgetExceeded reports whether err is a budget failure.
func IsBudgetExceeded(err error) bool {
	var e budgetExceededError
	return errors.As(err, &e)
}

// badInputError wraps request payloads the model cannot accept.
type badInputError struct{ err error }

func (e badInputError) Error() string { return "bad input: " + e.err.Error() }
func (e badInputError) Unwrap() error { return e.err }

// IsBadInput reports whether err is caused by the request payload.
func IsBadInput(err error) bool {
	var e badInputError
	return errors.As(err, &e) || errors.Is(err, iemodel.ErrInvalidInput)
}

// IsSlotMisuse reports whether err comes from using a request slot out of order.
func IsSlotMisuse(err error) bool {
	return errors.Is(err, iemodel.ErrSlotRange) || errors.Is(err, iemodel.ErrSlotBusy) || errors.Is(err, iemodel.ErrSlotIdle)
}

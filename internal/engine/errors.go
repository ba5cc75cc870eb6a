package engine

// unavailableError signals that a backend is not compiled in or its native
// runtime could not be loaded.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing engine backend.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

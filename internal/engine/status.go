package engine

import "strconv"

// StatusCode is the completion status reported by the engine for a request.
// Values follow the Inference Engine status codes.
type StatusCode int

const (
	StatusOK                StatusCode = 0
	StatusGeneralError      StatusCode = -1
	StatusNotImplemented    StatusCode = -2
	StatusNetworkNotLoaded  StatusCode = -3
	StatusParameterMismatch StatusCode = -4
	StatusNotFound          StatusCode = -5
	StatusOutOfBounds       StatusCode = -6
	StatusUnexpected        StatusCode = -7
	StatusRequestBusy       StatusCode = -8
	StatusResultNotReady    StatusCode = -9
	StatusNotAllocated      StatusCode = -10
	StatusInferNotStarted   StatusCode = -11
	StatusNetworkNotRead    StatusCode = -12
)

var statusNames = map[StatusCode]string{
	StatusOK:                "OK",
	StatusGeneralError:      "GENERAL_ERROR",
	StatusNotImplemented:    "NOT_IMPLEMENTED",
	StatusNetworkNotLoaded:  "NETWORK_NOT_LOADED",
	StatusParameterMismatch: "PARAMETER_MISMATCH",
	StatusNotFound:          "NOT_FOUND",
	StatusOutOfBounds:       "OUT_OF_BOUNDS",
	StatusUnexpected:        "UNEXPECTED",
	StatusRequestBusy:       "REQUEST_BUSY",
	StatusResultNotReady:    "RESULT_NOT_READY",
	StatusNotAllocated:      "NOT_ALLOCATED",
	StatusInferNotStarted:   "INFER_NOT_STARTED",
	StatusNetworkNotRead:    "NETWORK_NOT_READ",
}

// OK reports whether the status is success.
func (s StatusCode) OK() bool { return s == StatusOK }

func (s StatusCode) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "STATUS(" + strconv.Itoa(int(s)) + ")"
}

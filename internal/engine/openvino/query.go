package openvino

import (
	"errors"
	"fmt"

	"inferd/internal/engine"
)

type statusError struct {
	op     string
	status engine.StatusCode
}

func (e statusError) Error() string { return fmt.Sprintf("openvino: %s: %s", e.op, e.status) }

// supportFromCompile turns the outcome of a trial compilation into a layer
// support map. A device that rejects the network as not implemented
// supports none of its layers, so the caller reports every layer as
// unsupported. Other failures are returned unchanged.
func supportFromCompile(layers []string, device string, err error) (map[string]string, error) {
	var se statusError
	switch {
	case err == nil:
	case errors.As(err, &se) && se.status == engine.StatusNotImplemented:
		return map[string]string{}, nil
	default:
		return nil, err
	}
	out := make(map[string]string, len(layers))
	for _, l := range layers {
		out[l] = device
	}
	return out, nil
}

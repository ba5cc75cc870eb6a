//go:build !openvino

package openvino

import "inferd/internal/engine"

const built = false

const unavailableMsg = "openvino support not built (missing 'openvino' build tag)"

// Open fails: the native runtime is not linked into this build.
func Open() (engine.Core, error) {
	return nil, engine.ErrUnavailable(unavailableMsg)
}

// OpenWithConfig is Open with a plugins configuration file.
func OpenWithConfig(string) (engine.Core, error) {
	return nil, engine.ErrUnavailable(unavailableMsg)
}

// Package openvino binds engine.Core to the OpenVINO Inference Engine C API.
//
// The native binding is compiled only with the 'openvino' build tag and
// needs the runtime headers and libraries (ie_c_api.h, libinference_engine_c_api).
// Default builds get a stub whose Open reports engine.ErrUnavailable, so the
// daemon and its tests stay CGO-free.
package openvino

// Available reports whether this binary was built with the native binding.
func Available() bool { return built }

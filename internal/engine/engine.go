// Package engine describes the capability surface of the external inference
// engine: creating a handle, reading and querying networks, compiling them to
// an executable bound to a device, and running pooled inference requests.
//
// Nothing here executes a graph. Backends live in subpackages (openvino,
// enginetest) and are selected by the caller through an Opener.
package engine

import "time"

// DeviceCPU is the general-purpose processor device. Extensions are only
// registered against this device.
const DeviceCPU = "CPU"

// WaitInfinite blocks InferRequest.Wait until the request completes.
const WaitInfinite time.Duration = -1

// Core is a loaded instance of the inference runtime (the engine handle).
// One Core is normally shared by every model adapter in the process.
type Core interface {
	// AddExtension registers a device-specific operator library.
	AddExtension(path, device string) error
	// ReadNetwork loads a model description and its weights.
	ReadNetwork(model, weights string) (Network, error)
	// QueryNetwork reports which layers of net the device can run,
	// keyed by layer name with the executing device as value.
	QueryNetwork(net Network, device string) (map[string]string, error)
	// LoadNetwork compiles net for device with a pool of numRequests
	// reusable inference requests.
	LoadNetwork(net Network, device string, numRequests int) (ExecutableNetwork, error)
	// Close releases the runtime.
	Close() error
}

// PortInfo names an input or output of a network and its shape.
type PortInfo struct {
	Name  string
	Shape []int64
}

// Network is the in-memory representation of a model before compilation.
type Network interface {
	Name() string
	// Layers returns every operator name in the network, in graph order.
	Layers() []string
	// Inputs and Outputs follow the engine's own iteration order.
	Inputs() []PortInfo
	Outputs() []PortInfo
}

// ExecutableNetwork is a device-bound network with a fixed request pool.
type ExecutableNetwork interface {
	// Infer runs one blocking inference and returns every output by name.
	Infer(inputs map[string]Tensor) (map[string]Tensor, error)
	// Request returns the pooled request at index id.
	Request(id int) (InferRequest, error)
	NumRequests() int
	Close() error
}

// InferRequest is one pooled, reusable inference request.
type InferRequest interface {
	// StartAsync submits inputs and returns without waiting.
	StartAsync(inputs map[string]Tensor) error
	// Wait blocks for at most timeout (WaitInfinite for no limit) and
	// reports the completion status of the last submission.
	Wait(timeout time.Duration) StatusCode
	// Outputs returns the output tensors of the last completed run.
	Outputs() map[string]Tensor
}

// Opener constructs a raw engine handle for a backend.
type Opener func() (Core, error)

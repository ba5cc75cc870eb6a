package types

// Model represents an IR model (description + weights) discovered on disk.
type Model struct {
	// Stable identifier for the model: the description file stem.
	// example: face-detection-adas-0001
	ID string `json:"id" example:"face-detection-adas-0001"`
	// Network name declared by the description, or the ID when unreadable.
	// example: face-detection-adas-0001
	Name string `json:"name" example:"face-detection-adas-0001"`
	// Absolute path to the .xml description.
	// example: /home/user/models/face-detection-adas-0001.xml
	Path string `json:"path" example:"/home/user/models/face-detection-adas-0001.xml"`
	// Absolute path to the .bin weights.
	// example: /home/user/models/face-detection-adas-0001.bin
	Weights string `json:"weights" example:"/home/user/models/face-detection-adas-0001.bin"`
	// Size of the weights file in bytes.
	// example: 4213420
	SizeBytes int64 `json:"size_bytes" example:"4213420"`
	// IR format version.
	// example: 10
	IRVersion string `json:"ir_version,omitempty" example:"10"`
	// Number of operators in the graph (Result nodes excluded).
	// example: 213
	Layers int `json:"layers,omitempty" example:"213"`
	// Declared inputs.
	Inputs []Port `json:"inputs,omitempty"`
	// Declared outputs.
	Outputs []Port `json:"outputs,omitempty"`
}

// Port names a network input or output and its shape.
type Port struct {
	// example: data
	Name  string  `json:"name" example:"data"`
	Shape []int64 `json:"shape"`
}

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	// example: [1,3,2,2]
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

// NamedTensor is an output tensor tagged with its output identifier.
type NamedTensor struct {
	// example: detection_out
	Name string `json:"name" example:"detection_out"`
	Tensor
}

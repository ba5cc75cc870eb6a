package iemodel

import (
	"testing"

	"inferd/internal/engine"
	"inferd/internal/engine/enginetest"
)

func singleOutputModel() enginetest.Model {
	return enginetest.Model{
		Name:    "classifier",
		Layers:  []string{"data", "conv1", "relu1", "fc", "prob"},
		Inputs:  []engine.PortInfo{{Name: "data", Shape: []int64{1, 4}}},
		Outputs: []engine.PortInfo{{Name: "prob", Shape: []int64{1, 4}}},
	}
}

func multiOutputModel() enginetest.Model {
	return enginetest.Model{
		Name:   "detector",
		Layers: []string{"image", "backbone", "boxes", "scores", "labels"},
		Inputs: []engine.PortInfo{{Name: "image", Shape: []int64{1, 4}}},
		// deliberately not sorted: engine order must be kept
		Outputs: []engine.PortInfo{
			{Name: "scores", Shape: []int64{1, 4}},
			{Name: "boxes", Shape: []int64{1, 4}},
			{Name: "labels", Shape: []int64{1, 4}},
		},
	}
}

// newTestModel registers m under /models/<name>.xml and builds an adapter.
func newTestModel(t *testing.T, core *enginetest.Core, m enginetest.Model, numRequests int) *Model {
	t.Helper()
	stem := "/models/" + m.Name
	core.Register(stem+".xml", m)
	mdl, err := New(stem, "CPU", core, numRequests)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	t.Cleanup(func() { _ = mdl.Close() })
	return mdl
}

func vec(vals ...float32) engine.Tensor {
	return engine.Tensor{Shape: []int64{1, int64(len(vals))}, Data: vals}
}

func equalTensor(a, b engine.Tensor) bool {
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

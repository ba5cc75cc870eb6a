package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inferd/internal/engine"
	"inferd/internal/engine/enginetest"
	"inferd/pkg/types"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// writeWeights creates a .bin file of approximately sizeMB megabytes.
func writeWeights(t *testing.T, path string, sizeMB int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	block := make([]byte, 1024*1024)
	for i := 0; i < sizeMB; i++ {
		if _, err := f.Write(block); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func fakeModel(name string, outputs ...string) enginetest.Model {
	if len(outputs) == 0 {
		outputs = []string{"prob"}
	}
	m := enginetest.Model{
		Name:   name,
		Layers: []string{"data", "conv", "relu"},
		Inputs: []engine.PortInfo{{Name: "data", Shape: []int64{1, 4}}},
	}
	for _, o := range outputs {
		m.Outputs = append(m.Outputs, engine.PortInfo{Name: o, Shape: []int64{1, 4}})
	}
	return m
}

// fixture registers models on a fake engine and returns the registry
// entries pointing at real weights files.
type fixture struct {
	dir  string
	core *enginetest.Core
	reg  []types.Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{dir: t.TempDir(), core: enginetest.NewCore()}
}

func (f *fixture) add(t *testing.T, id string, sizeMB int, m enginetest.Model) {
	t.Helper()
	xml := filepath.Join(f.dir, id+".xml")
	bin := filepath.Join(f.dir, id+".bin")
	if err := os.WriteFile(xml, []byte("<net/>"), 0o644); err != nil {
		t.Fatalf("write xml: %v", err)
	}
	writeWeights(t, bin, sizeMB)
	f.core.Register(xml, m)
	f.reg = append(f.reg, types.Model{ID: id, Name: m.Name, Path: xml, Weights: bin})
}

func (f *fixture) manager(cfg ManagerConfig) *Manager {
	cfg.Registry = f.reg
	cfg.Core = f.core
	return NewWithConfig(cfg)
}

func vec(vals ...float32) types.Tensor {
	return types.Tensor{Shape: []int64{1, int64(len(vals))}, Data: vals}
}

func submitReq(model string) types.InferRequest {
	return types.InferRequest{Model: model, Input: vec(1, 2, 3, 4)}
}

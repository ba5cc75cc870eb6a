// Package enginetest provides an in-memory engine.Core for tests. Networks
// are registered by description path and "run" by plain Go functions, so
// adapter behaviour can be checked without a native runtime.
package enginetest

import (
	"fmt"
	"sync"
	"time"

	"inferd/internal/engine"
)

// ComputeFunc produces the tensor for one named output from the bound input.
type ComputeFunc func(output string, in engine.Tensor) engine.Tensor

// Model describes a fake network.
type Model struct {
	Name    string
	Layers  []string
	Inputs  []engine.PortInfo
	Outputs []engine.PortInfo
	// Compute defaults to Scale.
	Compute ComputeFunc
}

// Extension records one AddExtension call.
type Extension struct {
	Path   string
	Device string
}

// Core is a fake engine handle. The zero value is not usable; call NewCore.
type Core struct {
	mu          sync.Mutex
	models      map[string]Model
	unsupported map[string]map[string]bool
	failSlots   map[int]engine.StatusCode
	extensions  []Extension
	reads       [][2]string
	loads       int
	closed      bool

	// ExtensionErr, QueryErr and LoadErr are returned by the matching calls when set.
	ExtensionErr error
	QueryErr     error
	LoadErr      error
	// Delay is applied to every asynchronous request before it completes.
	Delay time.Duration
}

// NewCore returns an empty fake engine.
func NewCore() *Core {
	return &Core{
		models:      make(map[string]Model),
		unsupported: make(map[string]map[string]bool),
		failSlots:   make(map[int]engine.StatusCode),
	}
}

// Opener returns an engine.Opener that always yields c.
func (c *Core) Opener() engine.Opener {
	return func() (engine.Core, error) { return c, nil }
}

// Register makes ReadNetwork(xmlPath, ...) return m.
func (c *Core) Register(xmlPath string, m Model) {
	if m.Compute == nil {
		m.Compute = Scale(m.Outputs)
	}
	c.mu.Lock()
	c.models[xmlPath] = m
	c.mu.Unlock()
}

// SetUnsupported marks layers as unsupported on device.
func (c *Core) SetUnsupported(device string, layers ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.unsupported[device]
	if set == nil {
		set = make(map[string]bool)
		c.unsupported[device] = set
	}
	for _, l := range layers {
		set[l] = true
	}
}

// FailSlot makes the next completion of request slot id (in any executable
// network) report status instead of success.
func (c *Core) FailSlot(id int, status engine.StatusCode) {
	c.mu.Lock()
	c.failSlots[id] = status
	c.mu.Unlock()
}

func (c *Core) takeFailure(id int) engine.StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.failSlots[id]
	if !ok {
		return engine.StatusOK
	}
	delete(c.failSlots, id)
	return st
}

// Extensions lists the registered extensions in call order.
func (c *Core) Extensions() []Extension {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Extension(nil), c.extensions...)
}

// Reads lists the (model, weights) pairs passed to ReadNetwork.
func (c *Core) Reads() [][2]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]string(nil), c.reads...)
}

// Loads counts successful LoadNetwork calls.
func (c *Core) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// Closed reports whether Close was called.
func (c *Core) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Core) AddExtension(path, device string) error {
	if c.ExtensionErr != nil {
		return c.ExtensionErr
	}
	c.mu.Lock()
	c.extensions = append(c.extensions, Extension{Path: path, Device: device})
	c.mu.Unlock()
	return nil
}

func (c *Core) ReadNetwork(model, weights string) (engine.Network, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads = append(c.reads, [2]string{model, weights})
	m, ok := c.models[model]
	if !ok {
		return nil, fmt.Errorf("path to the model %s doesn't exist or it's a directory", model)
	}
	return &network{m: m}, nil
}

func (c *Core) QueryNetwork(n engine.Network, device string) (map[string]string, error) {
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string)
	for _, l := range n.Layers() {
		if !c.unsupported[device][l] {
			out[l] = device
		}
	}
	return out, nil
}

func (c *Core) LoadNetwork(n engine.Network, device string, numRequests int) (engine.ExecutableNetwork, error) {
	if c.LoadErr != nil {
		return nil, c.LoadErr
	}
	nw, ok := n.(*network)
	if !ok {
		return nil, fmt.Errorf("foreign network type %T", n)
	}
	if numRequests < 1 {
		return nil, fmt.Errorf("num_requests must be positive, got %d", numRequests)
	}
	x := &execNetwork{core: c, m: nw.m}
	for i := 0; i < numRequests; i++ {
		x.reqs = append(x.reqs, &request{exec: x, id: i})
	}
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return x, nil
}

func (c *Core) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

type network struct{ m Model }

func (n *network) Name() string               { return n.m.Name }
func (n *network) Layers() []string           { return append([]string(nil), n.m.Layers...) }
func (n *network) Inputs() []engine.PortInfo  { return append([]engine.PortInfo(nil), n.m.Inputs...) }
func (n *network) Outputs() []engine.PortInfo { return append([]engine.PortInfo(nil), n.m.Outputs...) }

// Scale returns a ComputeFunc multiplying the input by (i+1) for the i-th
// output of outs. Deterministic, so sync and async runs compare equal.
func Scale(outs []engine.PortInfo) ComputeFunc {
	factor := make(map[string]float32, len(outs))
	for i, o := range outs {
		factor[o.Name] = float32(i + 1)
	}
	return func(output string, in engine.Tensor) engine.Tensor {
		k := factor[output]
		t := in.Clone()
		for i := range t.Data {
			t.Data[i] *= k
		}
		return t
	}
}

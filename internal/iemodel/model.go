package iemodel

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
)

// ErrInvalidInput wraps input tensors that are malformed before they reach the engine.
var ErrInvalidInput = errors.New("invalid input tensor")

// Model is a compiled network with a fixed pool of request slots.
type Model struct {
	device  string
	xmlPath string
	binPath string

	net  engine.Network
	exec engine.ExecutableNetwork

	inputName string
	inputSize []int64
	outputs   OutputSpec

	slots []*slot
	log   zerolog.Logger
}

// Option customizes New.
type Option func(*Model)

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// New loads the model at path through core, checks that device supports
// every layer, and compiles it with numRequests pooled requests.
// Engine errors are returned unchanged; unsupported layers yield an
// *UnsupportedLayersError.
func New(path, device string, core engine.Core, numRequests int, opts ...Option) (*Model, error) {
	if core == nil {
		return nil, errors.New("nil engine core")
	}
	if numRequests < 1 {
		return nil, fmt.Errorf("num_requests must be at least 1, got %d", numRequests)
	}
	m := &Model{device: device, log: zerolog.Nop()}
	for _, o := range opts {
		o(m)
	}
	m.xmlPath, m.binPath = ModelFiles(path)

	net, err := core.ReadNetwork(m.xmlPath, m.binPath)
	if err != nil {
		return nil, err
	}
	supported, err := core.QueryNetwork(net, device)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, l := range net.Layers() {
		if _, ok := supported[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return nil, &UnsupportedLayersError{Device: device, Layers: missing}
	}

	inputs := net.Inputs()
	if len(inputs) == 0 {
		return nil, fmt.Errorf("network %q declares no inputs", net.Name())
	}
	if len(inputs) > 1 {
		m.log.Warn().Str("model", m.xmlPath).Int("inputs", len(inputs)).
			Msg("network has more than one input; only the first is bound")
	}
	outputs := net.Outputs()
	if len(outputs) == 0 {
		return nil, fmt.Errorf("network %q declares no outputs", net.Name())
	}

	exec, err := core.LoadNetwork(net, device, numRequests)
	if err != nil {
		return nil, err
	}
	m.net = net
	m.exec = exec
	m.inputName = inputs[0].Name
	m.inputSize = append([]int64(nil), inputs[0].Shape...)
	m.outputs = outputSpecFor(outputs)
	m.slots = newSlots(numRequests)
	m.log.Debug().Str("model", m.xmlPath).Str("device", device).Int("num_requests", numRequests).
		Str("input", m.inputName).Strs("outputs", m.outputs.Names()).Msg("model loaded")
	return m, nil
}

// InputName is the identifier the input tensor is bound to.
func (m *Model) InputName() string { return m.inputName }

// InputSize is the declared input shape.
func (m *Model) InputSize() []int64 { return append([]int64(nil), m.inputSize...) }

// Outputs describes the network outputs.
func (m *Model) Outputs() OutputSpec { return m.outputs }

// NumRequests is the request pool size.
func (m *Model) NumRequests() int { return len(m.slots) }

// Device is the compute target the model was compiled for.
func (m *Model) Device() string { return m.device }

// Paths returns the description and weights files the model was read from.
func (m *Model) Paths() (xml, bin string) { return m.xmlPath, m.binPath }

// NetworkName is the name declared by the model description.
func (m *Model) NetworkName() string { return m.net.Name() }

func (m *Model) bind(data engine.Tensor) (map[string]engine.Tensor, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return map[string]engine.Tensor{m.inputName: data}, nil
}

func (m *Model) collect(outs map[string]engine.Tensor) (Result, error) {
	names := m.outputs.names
	r := Result{tensors: make([]engine.Tensor, 0, len(names)), multiple: m.outputs.multiple}
	for _, n := range names {
		t, ok := outs[n]
		if !ok {
			return Result{}, fmt.Errorf("engine result has no output %q", n)
		}
		r.tensors = append(r.tensors, t)
	}
	return r, nil
}

// Infer runs a blocking inference on data. The result is a single tensor or
// the ordered outputs, following Outputs().
func (m *Model) Infer(data engine.Tensor) (Result, error) {
	inputs, err := m.bind(data)
	if err != nil {
		return Result{}, err
	}
	outs, err := m.exec.Infer(inputs)
	if err != nil {
		return Result{}, err
	}
	return m.collect(outs)
}

func (m *Model) slot(id int) (*slot, error) {
	if id < 0 || id >= len(m.slots) {
		return nil, slotError(ErrSlotRange, id, len(m.slots))
	}
	return m.slots[id], nil
}

// AsyncInfer submits data to request slot reqID and returns immediately.
// The slot must not be in flight.
func (m *Model) AsyncInfer(data engine.Tensor, reqID int) error {
	s, err := m.slot(reqID)
	if err != nil {
		return err
	}
	inputs, err := m.bind(data)
	if err != nil {
		return err
	}
	req, err := m.exec.Request(reqID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SlotInFlight {
		return slotError(ErrSlotBusy, reqID, len(m.slots))
	}
	if err := req.StartAsync(inputs); err != nil {
		return err
	}
	s.state = SlotInFlight
	return nil
}

// WaitRequest blocks until slot reqID completes. On success it returns the
// result and true. Any other completion status yields the zero Result and
// false, with a nil error. Errors are reserved for slot misuse.
//
// For a multi-output model the result carries every output in order, the
// same as Infer.
func (m *Model) WaitRequest(reqID int) (Result, bool, error) {
	s, err := m.slot(reqID)
	if err != nil {
		return Result{}, false, err
	}
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == SlotIdle {
		return Result{}, false, slotError(ErrSlotIdle, reqID, len(m.slots))
	}
	req, err := m.exec.Request(reqID)
	if err != nil {
		return Result{}, false, err
	}

	status := req.Wait(engine.WaitInfinite)
	var (
		res Result
		ok  bool
	)
	if status.OK() {
		res, err = m.collect(req.Outputs())
		ok = err == nil
		if err != nil {
			m.log.Warn().Err(err).Int("slot", reqID).Msg("completed request is missing outputs")
		}
	} else {
		m.log.Debug().Int("slot", reqID).Stringer("status", status).Msg("request completed without result")
	}

	s.mu.Lock()
	if s.state == SlotInFlight {
		if ok {
			s.state = SlotSucceeded
		} else {
			s.state = SlotFailed
		}
	}
	s.mu.Unlock()
	if !ok {
		return Result{}, false, nil
	}
	return res, true, nil
}

// Settle polls an in-flight slot without blocking and records its outcome
// if the engine has finished it. It returns the resulting state.
func (m *Model) Settle(reqID int) (SlotState, error) {
	s, err := m.slot(reqID)
	if err != nil {
		return SlotIdle, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SlotInFlight {
		return s.state, nil
	}
	req, err := m.exec.Request(reqID)
	if err != nil {
		return s.state, err
	}
	switch status := req.Wait(0); status {
	case engine.StatusResultNotReady, engine.StatusRequestBusy:
	case engine.StatusOK:
		s.state = SlotSucceeded
	default:
		s.state = SlotFailed
	}
	return s.state, nil
}

// SlotState reports the tracked state of slot id.
func (m *Model) SlotState(id int) (SlotState, error) {
	s, err := m.slot(id)
	if err != nil {
		return SlotIdle, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// Close releases the executable network.
func (m *Model) Close() error {
	if m.exec == nil {
		return nil
	}
	return m.exec.Close()
}

package enginetest

import (
	"fmt"
	"sync"
	"time"

	"inferd/internal/engine"
)

type execNetwork struct {
	core   *Core
	m      Model
	reqs   []*request
	mu     sync.Mutex
	closed bool
}

func (x *execNetwork) run(inputs map[string]engine.Tensor) (map[string]engine.Tensor, error) {
	if len(x.m.Inputs) == 0 {
		return nil, fmt.Errorf("network %q has no inputs", x.m.Name)
	}
	name := x.m.Inputs[0].Name
	in, ok := inputs[name]
	if !ok {
		return nil, fmt.Errorf("input %q is not bound", name)
	}
	out := make(map[string]engine.Tensor, len(x.m.Outputs))
	for _, o := range x.m.Outputs {
		out[o.Name] = x.m.Compute(o.Name, in)
	}
	return out, nil
}

func (x *execNetwork) Infer(inputs map[string]engine.Tensor) (map[string]engine.Tensor, error) {
	x.mu.Lock()
	closed := x.closed
	x.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("executable network is closed")
	}
	return x.run(inputs)
}

func (x *execNetwork) Request(id int) (engine.InferRequest, error) {
	if id < 0 || id >= len(x.reqs) {
		return nil, fmt.Errorf("request id %d out of range [0, %d)", id, len(x.reqs))
	}
	return x.reqs[id], nil
}

func (x *execNetwork) NumRequests() int { return len(x.reqs) }

func (x *execNetwork) Close() error {
	x.mu.Lock()
	x.closed = true
	x.mu.Unlock()
	return nil
}

type request struct {
	exec *execNetwork
	id   int

	mu      sync.Mutex
	done    chan struct{}
	status  engine.StatusCode
	outputs map[string]engine.Tensor
}

func (r *request) StartAsync(inputs map[string]engine.Tensor) error {
	r.mu.Lock()
	if r.done != nil {
		select {
		case <-r.done:
		default:
			r.mu.Unlock()
			return fmt.Errorf("request %d is busy", r.id)
		}
	}
	done := make(chan struct{})
	r.done = done
	r.outputs = nil
	r.mu.Unlock()

	bound := make(map[string]engine.Tensor, len(inputs))
	for k, v := range inputs {
		bound[k] = v.Clone()
	}
	go func() {
		if d := r.exec.core.Delay; d > 0 {
			time.Sleep(d)
		}
		status := r.exec.core.takeFailure(r.id)
		var outs map[string]engine.Tensor
		if status.OK() {
			var err error
			outs, err = r.exec.run(bound)
			if err != nil {
				status = engine.StatusGeneralError
			}
		}
		r.mu.Lock()
		r.status = status
		if status.OK() {
			r.outputs = outs
		}
		r.mu.Unlock()
		close(done)
	}()
	return nil
}

func (r *request) Wait(timeout time.Duration) engine.StatusCode {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return engine.StatusInferNotStarted
	}
	select {
	case <-done:
	default:
		if timeout == 0 {
			return engine.StatusResultNotReady
		}
	}
	if timeout == engine.WaitInfinite {
		<-done
	} else {
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-done:
		case <-t.C:
			return engine.StatusResultNotReady
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *request) Outputs() map[string]engine.Tensor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]engine.Tensor, len(r.outputs))
	for k, v := range r.outputs {
		out[k] = v
	}
	return out
}

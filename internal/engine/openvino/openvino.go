//go:build openvino

package openvino

/*
#cgo LDFLAGS: -linference_engine_c_api
#include <stdlib.h>
#include <string.h>
#include <c_api/ie_c_api.h>

static float *blob_floats(ie_blob_t *blob) {
	ie_blob_buffer_t buf;
	if (ie_blob_get_buffer(blob, &buf) != OK) {
		return NULL;
	}
	return (float *)buf.buffer;
}

static size_t dims_rank(dimensions_t *d) { return d->ranks; }
static size_t dims_at(dimensions_t *d, size_t i) { return d->dims[i]; }
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"inferd/internal/engine"
	"inferd/internal/engine/ir"
)

const built = true

func check(op string, st C.IEStatusCode) error {
	if st == C.OK {
		return nil
	}
	return statusError{op: op, status: engine.StatusCode(st)}
}

// Open creates an Inference Engine core with the default plugins configuration.
func Open() (engine.Core, error) { return OpenWithConfig("") }

// OpenWithConfig creates a core from a plugins.xml file. An empty path uses
// the runtime default.
func OpenWithConfig(pluginsXML string) (engine.Core, error) {
	cfg := C.CString(pluginsXML)
	defer C.free(unsafe.Pointer(cfg))
	var c *C.ie_core_t
	if err := check("ie_core_create", C.ie_core_create(cfg, &c)); err != nil {
		return nil, err
	}
	return &core{c: c}, nil
}

type core struct {
	mu sync.Mutex
	c  *C.ie_core_t
}

func (k *core) AddExtension(path, device string) error {
	cp, cd := C.CString(path), C.CString(device)
	defer C.free(unsafe.Pointer(cp))
	defer C.free(unsafe.Pointer(cd))
	k.mu.Lock()
	defer k.mu.Unlock()
	return check("ie_core_add_extension", C.ie_core_add_extension(k.c, cp, cd))
}

func (k *core) ReadNetwork(model, weights string) (engine.Network, error) {
	desc, err := ir.ReadFile(model)
	if err != nil {
		return nil, err
	}
	cm, cw := C.CString(model), C.CString(weights)
	defer C.free(unsafe.Pointer(cm))
	defer C.free(unsafe.Pointer(cw))
	var n *C.ie_network_t
	k.mu.Lock()
	st := C.ie_core_read_network(k.c, cm, cw, &n)
	k.mu.Unlock()
	if err := check("ie_core_read_network", st); err != nil {
		return nil, err
	}
	nw := &network{n: n, desc: desc}
	if err := nw.loadPorts(); err != nil {
		C.ie_network_free(&nw.n)
		return nil, err
	}
	return nw, nil
}

// QueryNetwork has no counterpart in the C API. The network is compiled on
// the device once and discarded: a successful compilation means every layer
// is supported, NOT_IMPLEMENTED means none is.
func (k *core) QueryNetwork(n engine.Network, device string) (map[string]string, error) {
	nw, ok := n.(*network)
	if !ok {
		return nil, fmt.Errorf("openvino: foreign network type %T", n)
	}
	exec, err := k.compile(nw, device)
	if err == nil {
		C.ie_exec_network_free(&exec)
	}
	return supportFromCompile(nw.desc.LayerNames(), device, err)
}

func (k *core) compile(nw *network, device string) (*C.ie_executable_network_t, error) {
	cd := C.CString(device)
	defer C.free(unsafe.Pointer(cd))
	var cfg C.ie_config_t
	var exec *C.ie_executable_network_t
	k.mu.Lock()
	st := C.ie_core_load_network(k.c, nw.n, cd, &cfg, &exec)
	k.mu.Unlock()
	if err := check("ie_core_load_network", st); err != nil {
		return nil, err
	}
	return exec, nil
}

func (k *core) LoadNetwork(n engine.Network, device string, numRequests int) (engine.ExecutableNetwork, error) {
	nw, ok := n.(*network)
	if !ok {
		return nil, fmt.Errorf("openvino: foreign network type %T", n)
	}
	if numRequests < 1 {
		return nil, fmt.Errorf("openvino: num_requests must be positive, got %d", numRequests)
	}
	exec, err := k.compile(nw, device)
	if err != nil {
		return nil, err
	}
	x := &execNetwork{exec: exec, net: nw}
	// one extra request serves the blocking Infer path
	for i := 0; i <= numRequests; i++ {
		var r *C.ie_infer_request_t
		if err := check("ie_exec_network_create_infer_request", C.ie_exec_network_create_infer_request(exec, &r)); err != nil {
			_ = x.Close()
			return nil, err
		}
		req := &request{r: r, net: nw}
		if i == numRequests {
			x.oneShot = req
		} else {
			x.reqs = append(x.reqs, req)
		}
	}
	return x, nil
}

func (k *core) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.c != nil {
		C.ie_core_free(&k.c)
	}
	return nil
}

type network struct {
	n       *C.ie_network_t
	desc    *ir.Description
	name    string
	inputs  []engine.PortInfo
	outputs []engine.PortInfo
}

func (nw *network) loadPorts() error {
	var cname *C.char
	if err := check("ie_network_get_name", C.ie_network_get_name(nw.n, &cname)); err != nil {
		return err
	}
	nw.name = C.GoString(cname)
	C.ie_network_name_free(&cname)

	var count C.size_t
	if err := check("ie_network_get_inputs_number", C.ie_network_get_inputs_number(nw.n, &count)); err != nil {
		return err
	}
	for i := C.size_t(0); i < count; i++ {
		var cn *C.char
		if err := check("ie_network_get_input_name", C.ie_network_get_input_name(nw.n, i, &cn)); err != nil {
			return err
		}
		var dims C.dimensions_t
		st := C.ie_network_get_input_dims(nw.n, cn, &dims)
		if st == C.OK {
			st = C.ie_network_set_input_precision(nw.n, cn, C.FP32)
		}
		name := C.GoString(cn)
		C.ie_network_name_free(&cn)
		if err := check("input "+name, st); err != nil {
			return err
		}
		nw.inputs = append(nw.inputs, engine.PortInfo{Name: name, Shape: goDims(&dims)})
	}

	if err := check("ie_network_get_outputs_number", C.ie_network_get_outputs_number(nw.n, &count)); err != nil {
		return err
	}
	for i := C.size_t(0); i < count; i++ {
		var cn *C.char
		if err := check("ie_network_get_output_name", C.ie_network_get_output_name(nw.n, i, &cn)); err != nil {
			return err
		}
		var dims C.dimensions_t
		st := C.ie_network_get_output_dims(nw.n, cn, &dims)
		if st == C.OK {
			st = C.ie_network_set_output_precision(nw.n, cn, C.FP32)
		}
		name := C.GoString(cn)
		C.ie_network_name_free(&cn)
		if err := check("output "+name, st); err != nil {
			return err
		}
		nw.outputs = append(nw.outputs, engine.PortInfo{Name: name, Shape: goDims(&dims)})
	}
	return nil
}

func goDims(d *C.dimensions_t) []int64 {
	n := int(C.dims_rank(d))
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(C.dims_at(d, C.size_t(i)))
	}
	return out
}

func (nw *network) Name() string               { return nw.name }
func (nw *network) Layers() []string           { return nw.desc.LayerNames() }
func (nw *network) Inputs() []engine.PortInfo  { return append([]engine.PortInfo(nil), nw.inputs...) }
func (nw *network) Outputs() []engine.PortInfo { return append([]engine.PortInfo(nil), nw.outputs...) }

type execNetwork struct {
	exec    *C.ie_executable_network_t
	net     *network
	reqs    []*request
	oneShot *request
	mu      sync.Mutex
}

func (x *execNetwork) Infer(inputs map[string]engine.Tensor) (map[string]engine.Tensor, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.exec == nil {
		return nil, fmt.Errorf("openvino: executable network is closed")
	}
	if err := x.oneShot.bind(inputs); err != nil {
		return nil, err
	}
	if err := check("ie_infer_request_infer", C.ie_infer_request_infer(x.oneShot.r)); err != nil {
		return nil, err
	}
	return x.oneShot.read()
}

func (x *execNetwork) Request(id int) (engine.InferRequest, error) {
	if id < 0 || id >= len(x.reqs) {
		return nil, fmt.Errorf("openvino: request id %d out of range [0, %d)", id, len(x.reqs))
	}
	return x.reqs[id], nil
}

func (x *execNetwork) NumRequests() int { return len(x.reqs) }

func (x *execNetwork) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, r := range append(x.reqs, x.oneShot) {
		if r != nil && r.r != nil {
			C.ie_infer_request_free(&r.r)
		}
	}
	if x.exec != nil {
		C.ie_exec_network_free(&x.exec)
	}
	if x.net.n != nil {
		C.ie_network_free(&x.net.n)
	}
	return nil
}

type request struct {
	r   *C.ie_infer_request_t
	net *network

	mu   sync.Mutex
	outs map[string]engine.Tensor
}

// bind copies every bound input into the request's own input blob.
func (q *request) bind(inputs map[string]engine.Tensor) error {
	for _, in := range q.net.inputs {
		t, ok := inputs[in.Name]
		if !ok {
			continue
		}
		cn := C.CString(in.Name)
		var blob *C.ie_blob_t
		st := C.ie_infer_request_get_blob(q.r, cn, &blob)
		C.free(unsafe.Pointer(cn))
		if err := check("ie_infer_request_get_blob", st); err != nil {
			return err
		}
		var size C.int
		if err := check("ie_blob_size", C.ie_blob_size(blob, &size)); err != nil {
			C.ie_blob_free(&blob)
			return err
		}
		if int(size) != len(t.Data) {
			C.ie_blob_free(&blob)
			return fmt.Errorf("openvino: input %q expects %d elements, got %d", in.Name, int(size), len(t.Data))
		}
		dst := C.blob_floats(blob)
		if dst == nil {
			C.ie_blob_free(&blob)
			return fmt.Errorf("openvino: input %q has no buffer", in.Name)
		}
		if len(t.Data) > 0 {
			C.memcpy(unsafe.Pointer(dst), unsafe.Pointer(&t.Data[0]), C.size_t(len(t.Data)*4))
		}
		C.ie_blob_free(&blob)
	}
	return nil
}

func (q *request) read() (map[string]engine.Tensor, error) {
	out := make(map[string]engine.Tensor, len(q.net.outputs))
	for _, o := range q.net.outputs {
		cn := C.CString(o.Name)
		var blob *C.ie_blob_t
		st := C.ie_infer_request_get_blob(q.r, cn, &blob)
		C.free(unsafe.Pointer(cn))
		if err := check("ie_infer_request_get_blob", st); err != nil {
			return nil, err
		}
		var dims C.dimensions_t
		if err := check("ie_blob_get_dims", C.ie_blob_get_dims(blob, &dims)); err != nil {
			C.ie_blob_free(&blob)
			return nil, err
		}
		t := engine.Tensor{Shape: goDims(&dims)}
		n := int(t.Elements())
		src := C.blob_floats(blob)
		if src == nil && n > 0 {
			C.ie_blob_free(&blob)
			return nil, fmt.Errorf("openvino: output %q has no buffer", o.Name)
		}
		if n > 0 {
			t.Data = append([]float32(nil), unsafe.Slice((*float32)(unsafe.Pointer(src)), n)...)
		}
		C.ie_blob_free(&blob)
		out[o.Name] = t
	}
	return out, nil
}

func (q *request) StartAsync(inputs map[string]engine.Tensor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.bind(inputs); err != nil {
		return err
	}
	q.outs = nil
	return check("ie_infer_request_infer_async", C.ie_infer_request_infer_async(q.r))
}

func (q *request) Wait(timeout time.Duration) engine.StatusCode {
	ms := int64(-1)
	if timeout != engine.WaitInfinite {
		ms = timeout.Milliseconds()
	}
	st := engine.StatusCode(C.ie_infer_request_wait(q.r, C.int64_t(ms)))
	if !st.OK() {
		return st
	}
	outs, err := q.read()
	if err != nil {
		var se statusError
		if errors.As(err, &se) {
			return se.status
		}
		return engine.StatusGeneralError
	}
	q.mu.Lock()
	q.outs = outs
	q.mu.Unlock()
	return engine.StatusOK
}

func (q *request) Outputs() map[string]engine.Tensor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outs
}

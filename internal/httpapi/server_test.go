package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inferd/internal/iemodel"
	"inferd/internal/manager"
	"inferd/pkg/types"
)

type mockService struct {
	models   []types.Model
	status   types.StatusResponse
	ready    bool
	inferErr error
	waitErr  error
	waitResp types.WaitResponse
	block    bool

	lastReq  types.InferRequest
	lastWait string
	lastSlot int
	unloaded []string
}

func (m *mockService) ListModels() []types.Model    { return append([]types.Model(nil), m.models...) }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func (m *mockService) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	m.lastReq = req
	if m.block {
		<-ctx.Done()
		return types.InferResponse{}, ctx.Err()
	}
	if m.inferErr != nil {
		return types.InferResponse{}, m.inferErr
	}
	out := types.NamedTensor{Name: "prob", Tensor: types.Tensor{Shape: req.Input.Shape, Data: req.Input.Data}}
	return types.InferResponse{Model: req.Model, Outputs: []types.NamedTensor{out}}, nil
}

func (m *mockService) Submit(ctx context.Context, req types.InferRequest) (types.SubmitResponse, error) {
	m.lastReq = req
	if m.inferErr != nil {
		return types.SubmitResponse{}, m.inferErr
	}
	return types.SubmitResponse{Model: req.Model, Slot: 2}, nil
}

func (m *mockService) Wait(ctx context.Context, modelID string, slot int) (types.WaitResponse, error) {
	m.lastWait, m.lastSlot = modelID, slot
	if m.waitErr != nil {
		return types.WaitResponse{}, m.waitErr
	}
	return m.waitResp, nil
}

func (m *mockService) Unload(modelID string) error {
	if modelID == "missing" {
		return manager.ErrModelNotFound(modelID)
	}
	m.unloaded = append(m.unloaded, modelID)
	return nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

const inferBody = `{"model":"m1","input":{"shape":[1,3],"data":[1,2,3]}}`

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "m1"}, {ID: "m2"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models len=%d", len(body.Models))
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{BudgetMB: 10}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.BudgetMB != 10 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("readyz not ready: %d %q", w.Code, w.Body.String())
	}

	svc.ready = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz ready: %d", w.Code)
	}
}

func TestInfer_OK(t *testing.T) {
	svc := &mockService{}
	w := postJSON(NewMux(svc), "/infer", inferBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.InferResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Model != "m1" || len(resp.Outputs) != 1 || resp.Outputs[0].Name != "prob" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := resp.Outputs[0].Data; len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected data: %v", got)
	}
	if len(svc.lastReq.Input.Shape) != 2 || svc.lastReq.Input.Shape[1] != 3 {
		t.Fatalf("request shape not decoded: %v", svc.lastReq.Input.Shape)
	}
}

func TestInfer_RequestValidation(t *testing.T) {
	r := NewMux(&mockService{})
	cases := []struct {
		name string
		ct   string
		body string
		want int
	}{
		{"wrong content type", "text/plain", inferBody, http.StatusUnsupportedMediaType},
		{"missing content type", "", inferBody, http.StatusUnsupportedMediaType},
		{"invalid json", "application/json", `{"model":`, http.StatusBadRequest},
		{"empty input", "application/json", `{"model":"m1","input":{"shape":[1]}}`, http.StatusBadRequest},
		{"missing input", "application/json", `{"model":"m1"}`, http.StatusBadRequest},
		{"shape mismatch", "application/json", `{"input":{"shape":[2,2],"data":[1,2,3]}}`, http.StatusBadRequest},
		{"negative dim", "application/json", `{"input":{"shape":[-1],"data":[]}}`, http.StatusBadRequest},
		{"zero-sized dim", "application/json", `{"input":{"shape":[1,0],"data":[]}}`, http.StatusOK},
		{"charset ok", "application/json; charset=utf-8", inferBody, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/infer", bytes.NewBufferString(tc.body))
			if tc.ct != "" {
				req.Header.Set("Content-Type", tc.ct)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestInfer_BodyTooLarge(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := postJSON(NewMux(&mockService{}), "/infer", inferBody)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestInfer_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", manager.ErrModelNotFound("m-missing"), http.StatusNotFound},
		{"too busy", manager.ErrTooBusy("m1"), http.StatusTooManyRequests},
		{"unsupported layers", &iemodel.UnsupportedLayersError{Device: "MYRIAD", Layers: []string{"relu1"}}, http.StatusUnprocessableEntity},
		{"wrapped unsupported", fmt.Errorf("load: %w", &iemodel.UnsupportedLayersError{Device: "GPU", Layers: []string{"x"}}), http.StatusUnprocessableEntity},
		{"slot busy", fmt.Errorf("%w: slot 0", iemodel.ErrSlotBusy), http.StatusConflict},
		{"bad input", fmt.Errorf("%w: shape", iemodel.ErrInvalidInput), http.StatusBadRequest},
		{"dependency", manager.ErrDependencyUnavailable("no inference engine configured"), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"http error", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(NewMux(&mockService{inferErr: tc.err}), "/infer", inferBody)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
			var er types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Code != tc.want || er.Error != tc.err.Error() {
				t.Fatalf("unexpected error body: %+v", er)
			}
		})
	}
}

func TestInfer_TimeoutCancelsService(t *testing.T) {
	SetInferTimeoutSeconds(1)
	defer SetInferTimeoutSeconds(0)
	svc := &mockService{block: true}
	start := time.Now()
	w := postJSON(NewMux(svc), "/infer", inferBody)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", w.Code)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestInfer_ServerShutdownCancels(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)
	svc := &mockService{block: true}
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- postJSON(NewMux(svc), "/infer", inferBody) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case w := <-done:
		// client-visible body is not written once the server is going away
		if w.Body.Len() != 0 {
			t.Fatalf("unexpected body on shutdown: %s", w.Body.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after base context canceled")
	}
}

func TestSubmitAndWait(t *testing.T) {
	svc := &mockService{waitResp: types.WaitResponse{Model: "m1", Slot: 2, Ready: true,
		Outputs: []types.NamedTensor{{Name: "prob", Tensor: types.Tensor{Data: []float32{1}}}}}}
	r := NewMux(svc)

	w := postJSON(r, "/requests", inferBody)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit status=%d", w.Code)
	}
	var sub types.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sub); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sub.Slot != 2 || sub.Model != "m1" {
		t.Fatalf("unexpected submit response: %+v", sub)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models/m1/requests/2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("wait status=%d", w.Code)
	}
	if svc.lastWait != "m1" || svc.lastSlot != 2 {
		t.Fatalf("wait called with %s/%d", svc.lastWait, svc.lastSlot)
	}
	var wr types.WaitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &wr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !wr.Ready || len(wr.Outputs) != 1 {
		t.Fatalf("unexpected wait response: %+v", wr)
	}
}

func TestWait_NoResultIsNotAnError(t *testing.T) {
	svc := &mockService{waitResp: types.WaitResponse{Model: "m1", Slot: 0, Ready: false}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models/m1/requests/0", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "outputs") {
		t.Fatalf("no-result response carries outputs: %s", w.Body.String())
	}
}

func TestWait_Errors(t *testing.T) {
	cases := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"non-numeric slot", "/models/m1/requests/abc", nil, http.StatusBadRequest},
		{"idle slot", "/models/m1/requests/0", fmt.Errorf("%w: slot 0", iemodel.ErrSlotIdle), http.StatusConflict},
		{"out of range", "/models/m1/requests/99", fmt.Errorf("%w: slot 99", iemodel.ErrSlotRange), http.StatusConflict},
		{"unknown model", "/models/nope/requests/0", manager.ErrModelNotFound("nope"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewMux(&mockService{waitErr: tc.err}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
		})
	}
}

func TestUnload(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/models/m1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if len(svc.unloaded) != 1 || svc.unloaded[0] != "m1" {
		t.Fatalf("unloaded=%v", svc.unloaded)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/models/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	SetCORSOptions(true, []string{"http://ui.local"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	r := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodOptions, "/infer", nil)
	req.Header.Set("Origin", "http://ui.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{})
	_ = postJSON(r, "/infer", inferBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `inferd_http_requests_total{method="POST",path="/infer",status="200"}`) {
		t.Fatalf("request counter for /infer not exported")
	}
}

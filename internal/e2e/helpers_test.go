package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inferd/internal/engine"
	"inferd/internal/engine/enginetest"
	"inferd/internal/httpapi"
	"inferd/internal/manager"
	"inferd/internal/registry"
)

// createTempModelsDir writes an .xml/.bin pair per name and registers a
// network for each on a fresh in-memory engine. Names ending in "+" declare
// two outputs.
func createTempModelsDir(t *testing.T, names ...string) (string, *enginetest.Core, []string) {
	t.Helper()
	dir := t.TempDir()
	core := enginetest.NewCore()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		multi := strings.HasSuffix(n, "+")
		id := strings.TrimSuffix(n, "+")
		xml := filepath.Join(dir, id+".xml")
		if err := os.WriteFile(xml, []byte(`<net name="`+id+`" version="10"><layers/><edges/></net>`), 0o644); err != nil {
			t.Fatalf("write %s: %v", xml, err)
		}
		if err := os.WriteFile(filepath.Join(dir, id+".bin"), make([]byte, 1<<20), 0o644); err != nil {
			t.Fatalf("write weights: %v", err)
		}
		m := enginetest.Model{
			Name:    id,
			Layers:  []string{"data", "conv1", "relu1", "prob"},
			Inputs:  []engine.PortInfo{{Name: "data", Shape: []int64{1, 4}}},
			Outputs: []engine.PortInfo{{Name: "prob", Shape: []int64{1, 4}}},
		}
		if multi {
			m.Outputs = append(m.Outputs, engine.PortInfo{Name: "boxes", Shape: []int64{1, 4}})
		}
		core.Register(xml, m)
		ids = append(ids, id)
	}
	return dir, core, ids
}

// newServerForDirWithConfig scans modelsDir and serves a manager over core.
func newServerForDirWithConfig(t *testing.T, modelsDir string, core engine.Core, cfg manager.ManagerConfig) (*httptest.Server, *manager.Manager) {
	t.Helper()
	reg, err := registry.NewIRScanner().Scan(modelsDir)
	if err != nil {
		t.Fatalf("scan models: %v", err)
	}
	cfg.Registry = reg
	cfg.Core = core
	if cfg.Device == "" {
		cfg.Device = engine.DeviceCPU
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	return httpDo(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	return httpDo(t, http.MethodPost, url, payload)
}

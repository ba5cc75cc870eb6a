package manager

import (
	"testing"
	"time"

	"inferd/internal/iemodel"
	"inferd/pkg/types"
)

func TestNewWithConfigDefaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	if m.maxQueueDepth != defaultMaxQueueDepth {
		t.Fatalf("expected default maxQueueDepth=%d got %d", defaultMaxQueueDepth, m.maxQueueDepth)
	}
	if m.maxWait != defaultMaxWait {
		t.Fatalf("expected default maxWait=%v got %v", defaultMaxWait, m.maxWait)
	}
	if m.drainTimeout != defaultDrainTimeout || m.leaseTTL != defaultLeaseTTL || m.numRequests != defaultNumRequests || m.Device() != "CPU" {
		t.Fatalf("unexpected defaults: drain=%v n=%d device=%s", m.drainTimeout, m.numRequests, m.Device())
	}
}

func TestNewWithConfigOverrides(t *testing.T) {
	m := NewWithConfig(ManagerConfig{MaxQueueDepth: 3, MaxWait: time.Second, DrainTimeout: time.Millisecond, LeaseTTL: time.Minute, NumRequests: 4, Device: "GPU"})
	if m.maxQueueDepth != 3 || m.maxWait != time.Second || m.drainTimeout != time.Millisecond || m.leaseTTL != time.Minute || m.numRequests != 4 || m.device != "GPU" {
		t.Fatalf("overrides not applied: %+v", m)
	}
}

func TestListModelsReturnsCopy(t *testing.T) {
	reg := []types.Model{{ID: "a"}, {ID: "b"}}
	m := NewWithConfig(ManagerConfig{Registry: reg})
	out := m.ListModels()
	if len(out) != 2 {
		t.Fatalf("expected 2 got %d", len(out))
	}
	out[0].ID = "z"
	if m.ListModels()[0].ID != "a" {
		t.Fatalf("internal registry mutated")
	}
}

func TestReady(t *testing.T) {
	// no engine: never ready
	if NewWithConfig(ManagerConfig{Registry: []types.Model{{ID: "a"}}}).Ready() {
		t.Fatalf("expected not ready without engine")
	}
	f := newFixture(t)
	f.add(t, "a", 1, fakeModel("a"))
	m := f.manager(ManagerConfig{})
	if !m.Ready() {
		t.Fatalf("expected ready with engine and registry")
	}
	if err := m.EnsureInstance(testCtx(t), "a"); err != nil {
		t.Fatalf("EnsureInstance: %v", err)
	}
	if !m.Ready() {
		t.Fatalf("expected ready after load")
	}
}

func TestEnsureInstance_LoadsOnceAndTracksMemory(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", 2, fakeModel("a"))
	m := f.manager(ManagerConfig{NumRequests: 3})
	ctx := testCtx(t)
	for i := 0; i < 3; i++ {
		if err := m.EnsureInstance(ctx, "a"); err != nil {
			t.Fatalf("EnsureInstance: %v", err)
		}
	}
	if f.core.Loads() != 1 {
		t.Fatalf("expected one compile, got %d", f.core.Loads())
	}
	st := m.Status()
	if len(st.Instances) != 1 || st.UsedMB != 2 || st.LoadsTotal != 1 || st.State != "ready" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Instances[0].NumRequests != 3 || len(st.Instances[0].Slots) != 3 || st.Instances[0].Device != "CPU" {
		t.Fatalf("unexpected instance status: %+v", st.Instances[0])
	}
}

func TestEnsureInstance_ConcurrentCallsShareLoad(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", 1, fakeModel("a"))
	m := f.manager(ManagerConfig{})
	ctx := testCtx(t)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { errs <- m.EnsureInstance(ctx, "a") }()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("EnsureInstance: %v", err)
		}
	}
	if f.core.Loads() != 1 {
		t.Fatalf("expected a single load, got %d", f.core.Loads())
	}
}

func TestEnsureInstance_DefaultAndErrors(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", 1, fakeModel("a"))
	ctx := testCtx(t)

	if err := f.manager(ManagerConfig{}).EnsureInstance(ctx, ""); !IsModelNotFound(err) {
		t.Fatalf("expected not found without default, got %v", err)
	}
	if err := f.manager(ManagerConfig{DefaultModel: "a"}).EnsureInstance(ctx, ""); err != nil {
		t.Fatalf("default model: %v", err)
	}
	if err := f.manager(ManagerConfig{}).EnsureInstance(ctx, "nope"); !IsModelNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	noEngine := NewWithConfig(ManagerConfig{Registry: f.reg})
	if err := noEngine.EnsureInstance(ctx, "a"); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestEnsureInstance_UnsupportedLayers(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", 1, fakeModel("a"))
	f.core.SetUnsupported("MYRIAD", "relu")
	pub := NewMemoryPublisher()
	m := f.manager(ManagerConfig{Device: "MYRIAD", Publisher: pub})
	err := m.EnsureInstance(testCtx(t), "a")
	if !iemodel.IsUnsupportedLayers(err) {
		t.Fatalf("expected unsupported layers error, got %v", err)
	}
	st := m.Status()
	if st.State != "error" || st.LastError == "" || len(st.Instances) != 0 {
		t.Fatalf("unexpected status after failed load: %+v", st)
	}
	names := pub.Names("a")
	if len(names) == 0 || names[len(names)-1] != "ensure_error" {
		t.Fatalf("expected ensure_error event, got %v", names)
	}
}

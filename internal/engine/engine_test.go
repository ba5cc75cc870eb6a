package engine_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/internal/engine/enginetest"
)

func TestLoadCore_RegistersExtensionOnlyForCPU(t *testing.T) {
	cases := []struct {
		device string
		ext    string
		want   int
	}{
		{engine.DeviceCPU, "/opt/ext/libcpu_extension.so", 1},
		{engine.DeviceCPU, "", 0},
		{"GPU", "/opt/ext/libcpu_extension.so", 0},
		{"MYRIAD", "", 0},
	}
	for _, c := range cases {
		fake := enginetest.NewCore()
		core, err := engine.LoadCore(fake.Opener(), c.device, c.ext, zerolog.Nop())
		if err != nil {
			t.Fatalf("%s/%q: load: %v", c.device, c.ext, err)
		}
		if core == nil {
			t.Fatalf("%s/%q: nil core", c.device, c.ext)
		}
		exts := fake.Extensions()
		if len(exts) != c.want {
			t.Fatalf("%s/%q: extensions=%v want %d", c.device, c.ext, exts, c.want)
		}
		if c.want == 1 && (exts[0].Path != c.ext || exts[0].Device != engine.DeviceCPU) {
			t.Fatalf("unexpected extension: %+v", exts[0])
		}
	}
}

func TestLoadCore_PropagatesErrors(t *testing.T) {
	openErr := errors.New("cannot open plugins.xml")
	_, err := engine.LoadCore(func() (engine.Core, error) { return nil, openErr }, "CPU", "", zerolog.Nop())
	if !errors.Is(err, openErr) {
		t.Fatalf("expected open error unchanged, got %v", err)
	}

	fake := enginetest.NewCore()
	extErr := errors.New("cannot load library")
	fake.ExtensionErr = extErr
	_, err = engine.LoadCore(fake.Opener(), "CPU", "/bad.so", zerolog.Nop())
	if err != extErr {
		t.Fatalf("expected extension error unchanged, got %v", err)
	}
	if !fake.Closed() {
		t.Fatalf("expected core closed after extension failure")
	}

	if _, err := engine.LoadCore(nil, "CPU", "", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil opener")
	}
}

func TestTensorValidate(t *testing.T) {
	ok := engine.Tensor{Shape: []int64{2, 2}, Data: []float32{1, 2, 3, 4}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if (engine.Tensor{Data: []float32{7}}).Validate() != nil {
		t.Fatalf("scalar should validate")
	}
	if (engine.Tensor{Shape: []int64{3}, Data: []float32{1}}).Validate() == nil {
		t.Fatalf("expected element count mismatch")
	}
	if (engine.Tensor{Shape: []int64{-1}, Data: nil}).Validate() == nil {
		t.Fatalf("expected negative dim error")
	}
	c := ok.Clone()
	c.Data[0] = 99
	if ok.Data[0] != 1 {
		t.Fatalf("clone shares data")
	}
}

func TestStatusCode(t *testing.T) {
	if !engine.StatusOK.OK() || engine.StatusGeneralError.OK() {
		t.Fatalf("OK() mismatch")
	}
	if engine.StatusResultNotReady.String() != "RESULT_NOT_READY" {
		t.Fatalf("string: %s", engine.StatusResultNotReady)
	}
	if engine.StatusCode(-99).String() != "STATUS(-99)" {
		t.Fatalf("unknown string: %s", engine.StatusCode(-99))
	}
}

func TestIsUnavailable(t *testing.T) {
	if !engine.IsUnavailable(engine.ErrUnavailable("x")) {
		t.Fatalf("expected unavailable")
	}
	if engine.IsUnavailable(errors.New("x")) {
		t.Fatalf("plain error is not unavailable")
	}
}

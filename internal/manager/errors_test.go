package manager

import (
	"errors"
	"fmt"
	"testing"

	"inferd/internal/engine"
	"inferd/internal/iemodel"
)

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", tooBusyError{modelID: "m"})
	if !IsTooBusy(wrapped) || IsModelNotFound(wrapped) {
		t.Fatalf("IsTooBusy should see through wrapping")
	}
	if !IsModelNotFound(ErrModelNotFound("x")) {
		t.Fatalf("expected model not found")
	}
	if !IsDependencyUnavailable(ErrDependencyUnavailable("x")) {
		t.Fatalf("expected dependency unavailable")
	}
	if !IsDependencyUnavailable(engine.ErrUnavailable("backend missing")) {
		t.Fatalf("engine unavailable must count as dependency unavailable")
	}
	if !IsBudgetExceeded(budgetExceededError{requiredMB: 2, budgetMB: 1}) {
		t.Fatalf("expected budget exceeded")
	}
	inner := errors.New("shape mismatch")
	be := badInputError{err: inner}
	if !IsBadInput(be) || !errors.Is(be, inner) {
		t.Fatalf("bad input must unwrap")
	}
	if !IsBadInput(fmt.Errorf("%w: x", iemodel.ErrInvalidInput)) {
		t.Fatalf("invalid input from the adapter is bad input")
	}
	for _, err := range []error{iemodel.ErrSlotBusy, iemodel.ErrSlotIdle, fmt.Errorf("x: %w", iemodel.ErrSlotRange)} {
		if !IsSlotMisuse(err) {
			t.Fatalf("expected slot misuse for %v", err)
		}
	}
	if IsSlotMisuse(errors.New("other")) {
		t.Fatalf("unexpected slot misuse")
	}
}

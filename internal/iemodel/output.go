package iemodel

import "inferd/internal/engine"

// OutputSpec records whether a network declares one output or several.
// It is decided once at construction.
type OutputSpec struct {
	names    []string
	multiple bool
}

// SingleOutput describes a network with exactly one output.
func SingleOutput(name string) OutputSpec {
	return OutputSpec{names: []string{name}}
}

// MultipleOutputs describes a network with several outputs in engine order.
func MultipleOutputs(names []string) OutputSpec {
	return OutputSpec{names: append([]string(nil), names...), multiple: true}
}

func outputSpecFor(ports []engine.PortInfo) OutputSpec {
	if len(ports) > 1 {
		names := make([]string, 0, len(ports))
		for _, p := range ports {
			names = append(names, p.Name)
		}
		return MultipleOutputs(names)
	}
	return SingleOutput(ports[0].Name)
}

// IsMultiple reports the Multiple variant.
func (o OutputSpec) IsMultiple() bool { return o.multiple }

// Name is the single output identifier. For the Multiple variant it is the
// first identifier.
func (o OutputSpec) Name() string {
	if len(o.names) == 0 {
		return ""
	}
	return o.names[0]
}

// Names returns every output identifier in order.
func (o OutputSpec) Names() []string { return append([]string(nil), o.names...) }

// Result carries inference output in the same shape as the OutputSpec that
// produced it: one tensor, or an ordered sequence.
type Result struct {
	tensors  []engine.Tensor
	multiple bool
}

// Single returns the tensor of a single-output result.
func (r Result) Single() (engine.Tensor, bool) {
	if r.multiple || len(r.tensors) != 1 {
		return engine.Tensor{}, false
	}
	return r.tensors[0], true
}

// Multiple returns the ordered tensors of a multi-output result.
func (r Result) Multiple() ([]engine.Tensor, bool) {
	if !r.multiple {
		return nil, false
	}
	return r.tensors, true
}

// Tensors returns every tensor regardless of variant.
func (r Result) Tensors() []engine.Tensor { return r.tensors }

// Len is the number of tensors carried.
func (r Result) Len() int { return len(r.tensors) }

// IsMultiple reports the Multiple variant.
func (r Result) IsMultiple() bool { return r.multiple }

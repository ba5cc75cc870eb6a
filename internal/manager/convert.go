package manager

import (
	"inferd/internal/engine"
	"inferd/internal/iemodel"
	"inferd/pkg/types"
)

func toEngineTensor(t types.Tensor) engine.Tensor {
	return engine.Tensor{Shape: t.Shape, Data: t.Data}
}

// namedOutputs pairs each tensor of r with its output name, in declared order.
func namedOutputs(spec iemodel.OutputSpec, r iemodel.Result) []types.NamedTensor {
	names := spec.Names()
	tensors := r.Tensors()
	out := make([]types.NamedTensor, 0, len(tensors))
	for i, t := range tensors {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out = append(out, types.NamedTensor{Name: name, Tensor: types.Tensor{Shape: t.Shape, Data: t.Data}})
	}
	return out
}

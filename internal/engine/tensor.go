package engine

import "fmt"

// Tensor is a dense FP32 tensor in row-major order.
type Tensor struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

// Elements returns the number of elements implied by Shape. A scalar
// (empty shape) has one element.
func (t Tensor) Elements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that Shape has no negative dims and matches len(Data).
func (t Tensor) Validate() error {
	for i, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("tensor dim %d is negative (%d)", i, d)
		}
	}
	if n := t.Elements(); n != int64(len(t.Data)) {
		return fmt.Errorf("tensor shape %v needs %d elements, got %d", t.Shape, n, len(t.Data))
	}
	return nil
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape: append([]int64(nil), t.Shape...),
		Data:  append([]float32(nil), t.Data...),
	}
}

package iemodel

import (
	"errors"
	"fmt"
	"strings"
)

// Slot misuse errors, matched with errors.Is.
var (
	ErrSlotRange = errors.New("request slot out of range")
	ErrSlotBusy  = errors.New("request slot is in flight")
	ErrSlotIdle  = errors.New("request slot has no submitted inference")
)

// UnsupportedLayersError reports layers the device cannot execute. Loading
// the model on that device cannot succeed.
type UnsupportedLayersError struct {
	Device string
	Layers []string
}

func (e *UnsupportedLayersError) Error() string {
	return fmt.Sprintf("following layers are not supported by the %s plugin:\n %s",
		e.Device, strings.Join(e.Layers, ", "))
}

// IsUnsupportedLayers reports whether err is (or wraps) an UnsupportedLayersError.
func IsUnsupportedLayers(err error) bool {
	var ue *UnsupportedLayersError
	return errors.As(err, &ue)
}

func slotError(kind error, id, n int) error {
	return fmt.Errorf("%w: slot %d (pool size %d)", kind, id, n)
}

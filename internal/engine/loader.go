package engine

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoadCore opens an engine handle and, for the CPU device only, registers
// cpuExtension against it. Engine errors are returned unchanged.
func LoadCore(open Opener, device, cpuExtension string, log zerolog.Logger) (Core, error) {
	if open == nil {
		return nil, fmt.Errorf("no engine backend configured")
	}
	core, err := open()
	if err != nil {
		return nil, err
	}
	if device == DeviceCPU && cpuExtension != "" {
		if err := core.AddExtension(cpuExtension, DeviceCPU); err != nil {
			_ = core.Close()
			return nil, err
		}
		log.Debug().Str("device", device).Str("extension", cpuExtension).Msg("engine extension registered")
	}
	log.Debug().Str("device", device).Msg("engine core loaded")
	return core, nil
}

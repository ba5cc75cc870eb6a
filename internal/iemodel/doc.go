// Package iemodel adapts one precompiled IR model to the engine's
// request-pool API.
//
// A Model is built once from a model path, a device and a shared engine
// handle. It offers a blocking Infer and an asynchronous pair, AsyncInfer
// and WaitRequest, addressed by request slot index in [0, NumRequests).
//
// Slot lifecycle:
//
//	idle --AsyncInfer--> in flight --WaitRequest--> succeeded | failed
//	succeeded | failed --AsyncInfer--> in flight
//
// The adapter tracks this per slot so that reusing a busy slot, waiting on a
// slot that was never submitted, or addressing a slot out of range are
// reported as errors instead of being left to the engine.
package iemodel

// Package manager coordinates loaded models on one shared engine handle:
// loading on demand, admission, the asynchronous request-slot pool, memory
// budgeting and unloading. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: State and Instance.
//   - errors.go: error types and helpers (IsTooBusy, IsModelNotFound, IsBadInput, ...).
//   - helpers.go: model lookup and memory estimation.
//   - admission.go: sync queueing and async slot leasing.
//   - ensure.go: EnsureInstance and model loading.
//   - evict.go: eviction to fit within the memory budget.
//   - infer.go: Infer, Submit and Wait.
//   - unload.go: Unload and Close.
//   - status_report.go: Status.
//   - ops.go: Preload.
//
// Async protocol: Submit leases a free slot and starts the request on it;
// Wait on that slot returns the result (or Ready=false when the engine
// reported a failure) and gives the slot back to the pool.
package manager

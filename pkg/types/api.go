package types

// InferRequest is the payload of POST /infer and POST /requests.
type InferRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: face-detection-adas-0001
	Model string `json:"model,omitempty" example:"face-detection-adas-0001"`
	// Input tensor bound to the model's first input.
	Input Tensor `json:"input"`
}

// InferResponse carries the outputs of a completed inference.
type InferResponse struct {
	// example: face-detection-adas-0001
	Model string `json:"model" example:"face-detection-adas-0001"`
	// True when the model declares more than one output.
	// example: false
	Multiple bool `json:"multiple" example:"false"`
	// Outputs in the model's declared order.
	Outputs []NamedTensor `json:"outputs"`
}

// SubmitResponse is returned by POST /requests.
type SubmitResponse struct {
	// example: face-detection-adas-0001
	Model string `json:"model" example:"face-detection-adas-0001"`
	// Request slot carrying the submission; pass it to the wait endpoint.
	// example: 0
	Slot int `json:"slot" example:"0"`
}

// WaitResponse is returned by GET /models/{id}/requests/{slot}.
type WaitResponse struct {
	// example: face-detection-adas-0001
	Model string `json:"model" example:"face-detection-adas-0001"`
	// example: 0
	Slot int `json:"slot" example:"0"`
	// False when the request completed without a result.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// example: false
	Multiple bool `json:"multiple" example:"false"`
	// Outputs in declared order; empty when Ready is false.
	Outputs []NamedTensor `json:"outputs,omitempty"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SlotStatus reports one pooled request slot.
type SlotStatus struct {
	// example: 0
	ID int `json:"id" example:"0"`
	// One of idle, in_flight, succeeded, failed.
	// example: idle
	State string `json:"state" example:"idle"`
	// True while the slot is handed out to a submitter and not yet waited on.
	// example: false
	Leased bool `json:"leased" example:"false"`
}

// InstanceStatus summarizes a loaded model for /status.
type InstanceStatus struct {
	// ID of the model this instance serves.
	// example: face-detection-adas-0001
	ModelID string `json:"model_id" example:"face-detection-adas-0001"`
	// Current lifecycle state of the instance (loading, ready, draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Device the network was compiled for.
	// example: CPU
	Device string `json:"device" example:"CPU"`
	// Last time this instance served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Estimated memory usage in MB.
	// example: 12
	EstMemMB int `json:"est_mem_mb" example:"12"`
	// Current queue length for synchronous requests.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of synchronous inferences in progress.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Size of the request pool.
	// example: 4
	NumRequests int `json:"num_requests" example:"4"`
	// Per-slot state of the request pool.
	Slots []SlotStatus `json:"slots"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Loaded instances.
	Instances []InstanceStatus `json:"instances"`
	// Memory budget in MB across all instances; 0 disables eviction.
	// example: 2048
	BudgetMB int `json:"budget_mb" example:"2048"`
	// Estimated used memory in MB.
	// example: 120
	UsedMB int `json:"used_est_mb" example:"120"`
	// Reserved memory margin in MB.
	// example: 128
	MarginMB int `json:"margin_mb" example:"128"`
	// Optional top-level error message.
	Error string `json:"error,omitempty"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total number of evictions performed to fit the budget.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Total number of model loads.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Overall manager state (e.g., loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Number of instances currently loading.
	// example: 1
	WarmupsInProgress int `json:"warmups_in_progress" example:"1"`
	// Number of instances currently draining (unload in progress).
	// example: 1
	DrainingCount int `json:"draining_count" example:"1"`
}

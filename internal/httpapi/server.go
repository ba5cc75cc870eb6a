package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool
	Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error)
	Submit(ctx context.Context, req types.InferRequest) (types.SubmitResponse, error)
	Wait(ctx context.Context, modelID string, slot int) (types.WaitResponse, error)
	Unload(modelID string) error
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefault(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefault(corsAllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Content-Type", "X-Log-Level", "X-Request-Id"}),
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}

	r.Get("/models", h.models)
	r.Get("/status", h.status)
	r.Post("/infer", h.infer)
	r.Post("/requests", h.submit)
	r.Get("/models/{id}/requests/{slot}", h.wait)
	r.Delete("/models/{id}", h.unload)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// @Summary      List models
// @Description  Models discovered in the models directory.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: h.svc.ListModels()})
}

// @Summary      Manager status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// @Summary      Run inference
// @Description  Blocks until the model produces its outputs.
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body      types.InferRequest  true  "input tensor"
// @Success      200      {object}  types.InferResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /infer [post]
func (h *handlers) infer(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInferRequest(w, r)
	if !ok {
		return
	}
	rl := startRequestLog(r, "infer", req.Model)
	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.Infer(ctx, req)
	if err != nil {
		if clientGone(r) {
			rl.end(0, err)
			return
		}
		status := writeServiceError(w, err)
		rl.end(status, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	rl.end(http.StatusOK, nil)
}

// @Summary      Submit an asynchronous inference
// @Description  Starts inference on a free request slot and returns the slot id.
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body      types.InferRequest  true  "input tensor"
// @Success      202      {object}  types.SubmitResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Router       /requests [post]
func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInferRequest(w, r)
	if !ok {
		return
	}
	rl := startRequestLog(r, "submit", req.Model)
	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.Submit(ctx, req)
	if err != nil {
		if clientGone(r) {
			rl.end(0, err)
			return
		}
		status := writeServiceError(w, err)
		rl.end(status, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
	rl.end(http.StatusAccepted, nil)
}

// @Summary      Wait for an asynchronous inference
// @Description  Blocks until the request in the slot completes. ready=false means it finished without a result.
// @Tags         inference
// @Produce      json
// @Param        id    path      string  true  "model id"
// @Param        slot  path      int     true  "slot id"
// @Success      200   {object}  types.WaitResponse
// @Failure      409   {object}  types.ErrorResponse
// @Router       /models/{id}/requests/{slot} [get]
func (h *handlers) wait(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "slot must be an integer")
		return
	}
	rl := startRequestLog(r, "wait", id)
	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.Wait(ctx, id, slot)
	if err != nil {
		if clientGone(r) {
			rl.end(0, err)
			return
		}
		status := writeServiceError(w, err)
		rl.end(status, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	rl.end(http.StatusOK, nil)
}

// @Summary      Unload a model
// @Tags         models
// @Param        id  path  string  true  "model id"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse
// @Router       /models/{id} [delete]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rl := startRequestLog(r, "unload", id)
	if err := h.svc.Unload(id); err != nil {
		status := writeServiceError(w, err)
		rl.end(status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	rl.end(http.StatusNoContent, nil)
}

func decodeInferRequest(w http.ResponseWriter, r *http.Request) (types.InferRequest, bool) {
	var req types.InferRequest
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return req, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	in := engine.Tensor{Shape: req.Input.Shape, Data: req.Input.Data}
	if err := in.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid input: "+err.Error())
		return req, false
	}
	return req, true
}

// requestContext joins the server base context with the request context so
// shutdown cancels work too, and applies the configured inference timeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if inferTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, time.Duration(inferTimeout)*time.Second)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

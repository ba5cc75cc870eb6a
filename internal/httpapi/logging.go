package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, request logging is disabled.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("INFERD_HTTP_LOG"))

// SetDefaultLogLevel overrides the per-request log level used when a request
// carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLog records the start and end of one API call.
type requestLog struct {
	op    string
	model string
	rid   string
	lvl   LogLevel
	start time.Time
}

func startRequestLog(r *http.Request, op, model string) *requestLog {
	rl := &requestLog{
		op:    op,
		model: model,
		rid:   middleware.GetReqID(r.Context()),
		lvl:   requestLogLevel(r),
		start: time.Now(),
	}
	if rl.lvl >= LevelInfo && zlog != nil {
		rl.event(zlog.Info()).Str("path", r.URL.Path).Msg(op + " start")
	}
	return rl
}

// end logs the outcome. status 0 means the client went away.
func (rl *requestLog) end(status int, err error) {
	if zlog == nil || rl.lvl == LevelOff {
		return
	}
	var ev *zerolog.Event
	switch {
	case err != nil && (status == 0 || status >= http.StatusInternalServerError):
		ev = zlog.Error()
	case rl.lvl >= LevelInfo:
		ev = zlog.Info()
	default:
		return
	}
	ev = rl.event(ev).Int("status", status).Dur("dur", time.Since(rl.start))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(rl.op + " end")
}

func (rl *requestLog) event(ev *zerolog.Event) *zerolog.Event {
	if rl.model != "" {
		ev = ev.Str("model", rl.model)
	}
	if rl.rid != "" {
		ev = ev.Str("request_id", rl.rid)
	}
	return ev
}

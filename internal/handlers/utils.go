package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// created on first use so it picks up the handler installed by logger_i.Init
var logRH = sync.OnceValue(func() *logger_i.Logger { return logger_i.NewLogger("handlers") })

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH().Error("Error encoding response", "error", err)
	}
}

func validateContext(ctx context.Context, log *logger_i.Logger) bool {
	if ctx.Err() != nil {
		log.Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func traceId(r *http.Request) string {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	return trace
}

// writeFailure logs the cause and sends only the generic message for its kind.
func writeFailure(w http.ResponseWriter, r *http.Request, log *logger_i.Logger, err error) {
	status, body := adapter.ToErrorResponse(err, traceId(r))
	log.Error("request failed", "status", status, "kind", body.Kind, "error", err)
	writeJsonResponse(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJsonResponse(w, http.StatusBadRequest, adapter.BadRequest(message, traceId(r)))
}

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var logMW = sync.OnceValue(func() *logger_i.Logger { return logger_i.NewLogger("middleware") })

// Wrap gives every request a trace id and records it in the request metrics.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(utils.RoutePattern(r), strconv.Itoa(rec.Status)).Inc() //metrics
		re.logger.Info("request handled", "method", r.Method, "path", r.URL.Path, "status", rec.Status, "elapsed", time.Since(start))
	}
}

// Handler is Wrap for mounted handlers.
func Handler(next http.Handler) http.Handler {
	return Wrap(next.ServeHTTP)
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logMW()
	return injectTrace(re)
}

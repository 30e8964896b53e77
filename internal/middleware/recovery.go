package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/fitcalc/internal/telemetry/metrics"
	"github.com/2beens/fitcalc/pkg"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a panicking function into a 500 with the usual
// {"error": ...} body. If the function already started its response, the
// body is left as is and only the panic is logged and counted.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			resp := &headerTrackingWriter{ResponseWriter: respWriter}
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}

				log.WithFields(log.Fields{
					"route":  routeLabel(req),
					"method": req.Method,
				}).Errorf("function panicked: %v\n%s", r, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				if !resp.wroteHeader {
					pkg.WriteJSONError(respWriter, http.StatusInternalServerError, "internal error")
				}
			}()

			// handler call
			next.ServeHTTP(resp, req)
		})
	}
}

type headerTrackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *headerTrackingWriter) WriteHeader(statusCode int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *headerTrackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

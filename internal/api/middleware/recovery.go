package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 with the same JSON error
// body the handlers use, carrying the request id so the log line can be
// found. http.ErrAbortHandler is passed through for net/http to handle.
// If the handler already started the response only the log is written.
func Recovery(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := chimiddleware.GetReqID(r.Context())
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("method", r.Method),
					zap.String("route", routeLabel(r)),
					zap.String("request_id", requestID),
					zap.Bool("response_started", ww.Status() != 0),
					zap.ByteString("stack", debug.Stack()),
				)
				PanicsRecoveredTotal.Inc()

				if ww.Status() != 0 {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(panicBody{Error: "internal server error", RequestID: requestID})
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

type panicBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

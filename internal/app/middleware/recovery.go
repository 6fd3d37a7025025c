package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/thushan/relay/internal/logger"
)

// RecoveryMiddleware turns a handler panic into a response written by
// onPanic. Nothing is written if the handler already started its response.
func RecoveryMiddleware(styledLogger logger.StyledLogger, onPanic func(w http.ResponseWriter, recovered any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				GetLogger(r.Context(), styledLogger).Error("Handler panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				if !wrapped.wroteHeader {
					onPanic(w, rec)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

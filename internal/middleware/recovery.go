package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"inventory-rest-api/internal/logger"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/response"
)

// Recovery is a middleware that recovers from panics.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error("panic recovered",
					"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))

				response.Error(w, apierror.InternalError("internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

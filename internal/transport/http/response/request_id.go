package response

import (
	"net/http"

	reqctx "github.com/baechuer/movie-review/services/auth-service/internal/pkg/context"
)

// RequestIDFromContext extracts the id set by the request id middleware.
func RequestIDFromContext(r *http.Request) string {
	return reqctx.GetRequestID(r.Context())
}

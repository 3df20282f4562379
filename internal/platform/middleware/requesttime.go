package middleware

import (
	"net/http"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request and stores
// it in the context. All operations within a single request then share the
// same "now", keeping audit entries and domain timestamps consistent.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

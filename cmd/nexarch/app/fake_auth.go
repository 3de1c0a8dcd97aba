package app

import (
	"net/http"

	"github.com/grafana/dskit/middleware"
	"github.com/grafana/dskit/user"

	"github.com/nexarch/nexarch/pkg/validation"
)

// fakeHTTPAuthMiddleware stamps every request with the single-tenant
// ID. Used when multitenancy is disabled.
var fakeHTTPAuthMiddleware = middleware.Func(func(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := user.InjectOrgID(r.Context(), validation.SingleTenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
})

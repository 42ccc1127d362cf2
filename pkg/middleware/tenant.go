package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/trackforge/assetflow/pkg/composables"
	"github.com/trackforge/assetflow/pkg/configuration"
	"github.com/trackforge/assetflow/pkg/httpapi"
)

// RequireTenantFromHeaders resolves the caller's tenant and actor identity
// from gateway-set headers. Identity issuance and verification live upstream;
// this service only transports the resolved ids into the request context.
func RequireTenantFromHeaders() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := parseHeaderUUID(r, conf.TenantIDHeader)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "NO_TENANT", "missing or malformed tenant header", nil)
				return
			}
			actorID, err := parseHeaderUUID(r, conf.ActorIDHeader)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_ACTOR", "missing or malformed actor header", nil)
				return
			}

			ctx := composables.WithTenantID(r.Context(), tenantID)
			ctx = composables.WithActorID(ctx, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseHeaderUUID(r *http.Request, header string) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(header))
	return uuid.Parse(raw)
}

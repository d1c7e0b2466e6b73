package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/response"
)

// RequireEmployee requires the token to name an employee, whatever the role.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if identity.EmployeeID == "" {
			response.HandleError(w, auth.ErrEmployeeClaimMissing)
			return
		}

		next.ServeHTTP(w, r)
	})
}

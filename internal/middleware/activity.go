package middleware

import (
	"log"
	"net/http"

	"github.com/habitosecreto/habito-api/internal/database"
)

// ActivityTracking stamps last_seen_at for authenticated requests. Failures
// are logged and never fail the request.
func ActivityTracking(userRepo *database.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r)
			if user != nil {
				if err := userRepo.TouchLastSeen(r.Context(), user.ID); err != nil {
					log.Printf("Failed to update user activity: %v", err)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

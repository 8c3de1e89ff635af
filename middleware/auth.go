package middleware

import (
	"context"
	"net/http"
	"strings"

	"giftbot/utils"
)

// AdminAuthMiddleware verifies the Bearer token and the admin role before
// letting a request through to the admin surface.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Unauthorized: no token provided",
			})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := utils.ValidateAccessToken(tokenString)
		if err != nil {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Unauthorized: invalid token",
			})
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "admin" {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Forbidden: admin access required",
			})
			return
		}

		var adminID int64
		if raw, ok := claims["id"].(float64); ok {
			adminID = int64(raw)
		}
		ctx := context.WithValue(r.Context(), utils.AdminIDKey, adminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/user-tasks-api/pkg/respond"
)

type contextKey string

const userIDKey contextKey = "userID"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Middleware пропускает дальше только запросы с валидным Bearer токеном
func Middleware(v *Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Error(w, r, http.StatusUnauthorized, "authorization header required")
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respond.Error(w, r, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			userID, err := v.Verify(token)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				if errors.Is(err, ErrExpiredToken) {
					respond.Error(w, r, http.StatusUnauthorized, "token expired")
					return
				}
				respond.Error(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/truetone/api/internal/model"
)

// ProfileLookup loads the profile bound to an identity
type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

// RequireAdmin allows the request only when the caller's stored profile has
// the admin role. Token claims are not consulted. Must run after Auth.
func RequireAdmin(profiles ProfileLookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}

			profile, err := profiles.GetByUserID(r.Context(), userID)
			if err != nil {
				slog.Error("admin check failed",
					slog.String("user_id", userID),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				model.NewInternalError("Unable to verify permissions, please retry").WriteJSON(w)
				return
			}
			if profile == nil || !profile.IsAdmin() {
				model.NewForbiddenError("administrator role required").WithCode(model.ErrCodeNotAdmin).WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), ProfileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProfile returns the profile loaded by RequireAdmin, if any
func GetProfile(ctx context.Context) *model.Profile {
	if p, ok := ctx.Value(ProfileKey).(*model.Profile); ok {
		return p
	}
	return nil
}

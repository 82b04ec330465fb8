package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	ProfileSessionName = "storefront_profile"
	profileIDField     = "profile_id"
)

// Profile gives every browser a stable profile id in a signed cookie. The id
// scopes the cart and the pending enrollment record, the way browser storage
// would.
func Profile(store sessions.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, ProfileSessionName)
			if err != nil {
				// Tampered or rotated-key cookie: start a fresh profile.
				logger.Debug("resetting profile cookie", zap.Error(err))
			}

			profileID, _ := session.Values[profileIDField].(string)
			if _, perr := uuid.Parse(profileID); perr != nil {
				profileID = uuid.NewString()
				session.Values[profileIDField] = profileID
				if err := session.Save(r, w); err != nil {
					logger.Warn("failed to save profile cookie", zap.Error(err))
				}
			}

			ctx := context.WithValue(r.Context(), ProfileContextKey, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetProfile(ctx context.Context) string {
	profileID, _ := ctx.Value(ProfileContextKey).(string)
	return profileID
}

func WithProfile(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ProfileContextKey, profileID)
}

// NewCookieStore builds the signed cookie store for profile ids.
func NewCookieStore(secret, domain string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

package app

import (
	"net/http"
	"strings"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/auth"
	"github.com/elmerescandon/financy-v2-sub000/internal/config"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// publicPaths are served without an identity.
var publicPaths = map[string]bool{
	"/api/health": true,
}

// SetupMiddleware wires the router-level middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.Use(WithUser(deps.AuthTokenValidator, deps.UserService, cfg.Auth.AllowHeaderUser))
	r.Use(rest.WithJsonBody(maxBodyBytes))
}

// WrapHandler adds the middlewares that must run before routing, outermost first.
func WrapHandler(h http.Handler, deps *Dependencies, cfg config.Application) http.Handler {
	if cfg.RateLimit.Enabled {
		limiter := rest.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.Ttl, deps.Clock)
		h = limiter.WithRateLimit(h)
	}
	if cfg.RateLimit.TrustProxy {
		h = middleware.RealIP(h)
	}
	h = middleware.RequestID(h)
	h = rest.WithCors(cfg.Cors.AllowedOrigins)(h)
	return h
}

// WithUser resolves the caller from a bearer token, or from the X-User-Id header when allowed,
// and puts the local profile into the request context.
func WithUser(validator *auth.TokenValidator, users user.Service, allowHeaderUser bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if publicPaths[req.URL.Path] || req.Method == http.MethodOptions {
				next.ServeHTTP(w, req)
				return
			}
			ctx := req.Context()

			var (
				u   user.User
				err error
			)
			if token, ok := auth.BearerToken(req.Header.Get("Authorization")); ok {
				var claims auth.Claims
				claims, err = validator.Validate(token)
				if err == nil {
					u, err = users.EnsureUser(ctx, claims.Uid, claims.Email)
				}
			} else if uid := strings.TrimSpace(req.Header.Get("X-User-Id")); allowHeaderUser && uid != "" {
				u, err = users.GetUserByUid(ctx, uid)
				if apperr.IsKind(err, apperr.KindNotFound) {
					err = apperr.Authentication("Unknown user", err)
				}
			} else {
				err = apperr.Authentication("Authentication required", nil)
			}

			if err != nil {
				log.Debugf("rejecting %s %s: %v", req.Method, req.URL.Path, err)
				rest.WriteError(w, err)
				return
			}
			log.Debugf("authenticated user %d (%s)", u.Id, u.Uid)
			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	}
}

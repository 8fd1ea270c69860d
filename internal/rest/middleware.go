package rest

import (
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// WithCors allows browser clients from the given origins.
func WithCors(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// WithMethods rejects requests whose method is not listed with a 405 envelope.
func WithMethods(methods ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[strings.ToUpper(m)] = true
	}
	allowHeader := strings.Join(methods, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[r.Method] {
				w.Header().Set("Allow", allowHeader)
				MethodNotAllowedHandler().ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithJsonBody requires a JSON content type on requests carrying a body and caps the body size.
func WithJsonBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				log.Debugf("rejecting %s %s with content type %q", r.Method, r.URL.Path, r.Header.Get("Content-Type"))
				writeErrorResponse(w, http.StatusUnsupportedMediaType, ErrorResponse{
					Error:   "Unsupported content type",
					Code:    "UNSUPPORTED_MEDIA_TYPE",
					Details: "Request body must be application/json",
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
	default:
		return false
	}
}

// NotFoundHandler answers unknown routes with the envelope.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, ErrorResponse{
			Error: "Route not found",
			Code:  "ROUTE_NOT_FOUND",
		})
	})
}

// MethodNotAllowedHandler answers known routes hit with the wrong method.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method " + r.Method + " not allowed",
			Code:  "METHOD_NOT_ALLOWED",
		})
	})
}

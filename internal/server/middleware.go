package server

import (
	"net/http"

	"appforge/internal/api"
	"appforge/internal/logging"
)

// corsMiddleware enforces the origin allow-list. Requests without an Origin
// header (native clients, curl) and the literal "null" origin pass; anything
// else must be allow-listed or is rejected with CORS_BLOCKED.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && origin != "null" && !s.originAllowed(origin) {
			s.writeError(w, http.StatusForbidden, api.CodeCORSBlocked)
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// recoverMiddleware confines handler panics to a generic 500 so no internal
// detail leaks and the process never dies for a single request.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					logging.String("path", r.URL.Path),
					logging.Any("panic", rec),
				)
				s.writeError(w, http.StatusInternalServerError, api.CodeServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

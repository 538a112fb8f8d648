package server

import (
	"net/http"
	"slices"
	"strings"

	"jobcopilot/internal/observability"
)

// route maps HTTP methods to handlers for one path
type route map[string]http.HandlerFunc

// ServeHTTP dispatches on method and answers 405 for anything else
func (rt route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.Method]; ok {
		h(w, r)
		return
	}
	allowed := make([]string, 0, len(rt))
	for m := range rt {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeErrorResponse(w, "Method not allowed", r.Method+" is not supported on "+r.URL.Path, http.StatusMethodNotAllowed)
}

// Handler returns the full middleware chain around the API routes
func (s *Server) Handler() http.Handler {
	om := s.obsManager()
	return corsMiddleware(om.HTTPMiddleware()(s.setupRoutes(om)))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimited := s.createRateLimitMiddleware(om)
	limited := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimited(s.authMiddleware(limited(h)))
	}

	mux.Handle("/health", route{http.MethodGet: s.healthHandler})
	mux.Handle("/stats", route{http.MethodGet: protected(s.statsHandler)})
	mux.Handle("/auth/login", route{http.MethodPost: rateLimited(limited(s.loginHandler))})
	mux.Handle("/profile", route{
		http.MethodGet: protected(s.getProfileHandler),
		http.MethodPut: protected(s.putProfileHandler(om)),
	})
	mux.Handle("/documents/resume", route{http.MethodPost: protected(s.resumeUploadHandler(om))})
	mux.Handle("/events/audit", route{http.MethodPost: protected(s.auditHandler(om))})
	mux.Handle("/ai/answer-fields", route{http.MethodPost: protected(s.answerFieldsHandler(om))})
	for path, status := range jobRoutes {
		mux.Handle(path, route{
			http.MethodPost: protected(s.recordJobHandler(om, status)),
			http.MethodGet:  protected(s.listJobsHandler(status)),
		})
	}

	if h := om.MetricsHandler(); h != nil {
		mux.Handle(om.MetricsEndpoint(), h)
	}

	return mux
}

// corsMiddleware allows any origin, method and header without credentials
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware accepts a configured API key or a token issued by /auth/login.
// With neither API keys nor a JWT secret configured every request passes.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 && !s.tokens.Signed() {
			next(w, r)
			return
		}

		credential := r.Header.Get("X-API-Key")
		bearer := false
		if credential == "" {
			if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				credential = strings.TrimSpace(after)
				bearer = true
			}
		}

		if credential == "" {
			s.Logger.Info("Authentication failed: missing credentials",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing credentials", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if s.APIKeys[credential] {
			s.Logger.Debug("API key authentication successful",
				"endpoint", r.URL.Path,
				"api_key_prefix", maskAPIKey(credential))
			next(w, r)
			return
		}

		if bearer && s.tokens.Signed() {
			claims, err := s.tokens.Verify(credential)
			if err == nil {
				s.Logger.Debug("Token authentication successful",
					"endpoint", r.URL.Path,
					"subject", claims.Subject)
				next(w, r)
				return
			}
			s.Logger.Info("Authentication failed: invalid token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"reason", err.Error())
			writeErrorResponse(w, "Invalid token", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Info("Authentication failed: invalid API key",
			"endpoint", r.URL.Path,
			"client_ip", getClientIP(r),
			"api_key_prefix", maskAPIKey(credential))
		writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

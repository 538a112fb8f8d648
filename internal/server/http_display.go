package server

import "fmt"

// displayServerInfo prints the startup banner
func (s *Server) displayServerInfo(addr string) {
	scheme := "http"
	if s.TLSConfig.Mode == "server" || s.TLSConfig.Mode == "mutual" {
		scheme = "https"
	}
	fmt.Printf("Starting jobcopilot on %s://%s (TLS mode: %s)\n", scheme, addr, tlsModeLabel(s.TLSConfig.Mode))
	s.displayEndpoints()
	s.displayLLMInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func tlsModeLabel(mode string) string {
	if mode == "" {
		return "disabled"
	}
	return mode
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET      /health            - Health check")
	fmt.Println("  GET      /stats             - Server statistics")
	fmt.Println("  POST     /auth/login        - Issue an access token")
	fmt.Println("  GET|PUT  /profile           - Read or replace the profile")
	fmt.Println("  POST     /documents/resume  - Create a resume upload URL")
	fmt.Println("  POST     /events/audit      - Record a form fill audit event")
	fmt.Println("  GET|POST /jobs/save         - List or record saved jobs")
	fmt.Println("  GET|POST /jobs/applied      - List or record applied jobs")
	fmt.Println("  POST     /ai/answer-fields  - Answer application form fields")
}

func (s *Server) displayLLMInfo() {
	if s.llm == nil || !s.llm.Available() {
		fmt.Println("LLM: DISABLED (no API key, heuristic answers only)")
		return
	}
	fmt.Printf("LLM: %s (%s)\n", s.llm.ProviderName(), s.llm.Model())
}

func (s *Server) displayAuthInfo() {
	switch {
	case len(s.APIKeys) > 0 && s.tokens.Signed():
		fmt.Printf("API authentication: ENABLED (%d keys configured, signed login tokens accepted)\n", len(s.APIKeys))
	case len(s.APIKeys) > 0:
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
	case s.tokens.Signed():
		fmt.Println("API authentication: ENABLED (signed login tokens)")
	default:
		fmt.Println("API authentication: DISABLED (no API keys or JWT secret configured)")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}

package api

import (
	"net/http"

	"bazi/internal/version"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth)

	// Chart engine
	s.router.HandleFunc("/chart", s.handleChart)                  // POST
	s.router.HandleFunc("/interactions", s.handleInteractions)    // POST
	s.router.HandleFunc("/overlay", s.handleOverlay)              // POST
	s.router.HandleFunc("/reverse", s.handleReverse)              // POST, synchronous
	s.router.HandleFunc("/reverse/stream", s.handleReverseStream) // POST, server-sent events
	s.router.HandleFunc("/cities", s.handleCities)                // GET

	// Background reverse searches
	s.router.HandleFunc("/jobs", s.handleListJobs)              // GET
	s.router.HandleFunc("/jobs/reverse", s.handleSubmitReverse) // POST
	s.router.HandleFunc("/jobs/", s.handleJobRoutes)            // GET /:id, POST /:id/cancel

	// Saved cases
	s.router.HandleFunc("/cases", s.handleCases)       // GET list, POST save
	s.router.HandleFunc("/cases/", s.handleCaseRoutes) // GET|PATCH|DELETE /:id, GET /:id/chart

	s.router.HandleFunc("/", s.handleRoot)
}

// handleRoot handles requests to the root path
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	response := map[string]interface{}{
		"name":    "Bazi HTTP API",
		"version": version.Version,
		"endpoints": []string{
			"GET /health - Health check with runner and cache statistics",
			"POST /chart - Compute a chart from a birth spec",
			"POST /interactions - Interactions of a birth spec's four pillars",
			"POST /overlay - Overlay a luck decade, year and month on a chart",
			"POST /reverse - Find dates matching four pillars",
			"POST /reverse/stream - Reverse search as server-sent events",
			"GET /cities - Longitude catalog",
			"GET /jobs - List background jobs",
			"POST /jobs/reverse - Start a background reverse search",
			"GET /jobs/:id - Get job status and result",
			"POST /jobs/:id/cancel - Cancel job",
			"GET /cases - List saved cases",
			"POST /cases - Save a case",
			"GET /cases/:id - Get a case",
			"PATCH /cases/:id - Rename or annotate a case",
			"DELETE /cases/:id - Delete a case",
			"GET /cases/:id/chart - Chart of a saved case",
		},
	}

	WriteJSON(w, response, http.StatusOK)
}

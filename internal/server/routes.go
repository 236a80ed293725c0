package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/stockdeck/internal/common"
)

// registerRoutes wires all HTTP endpoints.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Unauthenticated probes
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth and user management
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/users", s.handleUserCreate)

	// Market data
	mux.HandleFunc("/api/stocks", s.handleStocks)
	mux.HandleFunc("/api/stocks/", s.routeStocks)

	// Profile and favorites
	mux.HandleFunc("/api/profile", s.routeProfile)
	mux.HandleFunc("/api/favorites", s.handleFavoriteAdd)
	mux.HandleFunc("/api/favorites/", s.handleFavoriteRemove)

	// Activity history
	mux.HandleFunc("/api/activity", s.handleActivity)
}

// handleHealth reports service health. Served without authentication.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"auth_enabled": !s.app.Config.Auth.DevMode,
		"environment":  s.app.Config.Environment,
		"version":      common.GetVersion(),
		"uptime":       time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown triggers a graceful shutdown. Disabled in production.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via API")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if s.shutdownChan != nil {
		// Give the response time to reach the client before signalling.
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

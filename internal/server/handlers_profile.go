package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// routeProfile dispatches GET and POST for /api/profile.
func (s *Server) routeProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleProfileGet(w, r)
	case http.MethodPost:
		s.handleProfileUpdate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProfileGet returns the caller's profile, creating it on first access.
func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := common.ResolveUserID(ctx)
	email := common.ResolveEmail(ctx)
	name := ""
	if uc := common.UserContextFromContext(ctx); uc != nil {
		name = uc.Name
	}

	profile, err := s.app.Profile.GetProfile(ctx, uid, email, name)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uid).Msg("Failed to fetch profile")
		WriteError(w, http.StatusInternalServerError, "Failed to fetch user profile")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// handleProfileUpdate applies a partial profile update. Fields outside
// display name, preferences and favorites are ignored by the decoder.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if !DecodeJSON(w, r, &update) {
		return
	}

	ctx := r.Context()
	uid := common.ResolveUserID(ctx)

	if _, err := s.app.Profile.UpdateProfile(ctx, uid, &update); err != nil {
		s.logger.Error().Err(err).Str("user", uid).Msg("Failed to update profile")
		WriteError(w, http.StatusInternalServerError, "Failed to update user profile")
		return
	}

	s.app.Activity.Record(ctx, uid, "profile_update", nil)

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// handleFavoriteAdd serves POST /api/favorites?symbol=AAPL. The symbol may
// also arrive in a JSON body. Storage uppercases the symbol; the response
// message echoes it exactly as submitted.
func (s *Server) handleFavoriteAdd(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		var req struct {
			Symbol string `json:"symbol"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		symbol = strings.TrimSpace(req.Symbol)
	}
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx := r.Context()
	uid := common.ResolveUserID(ctx)

	if err := s.app.Profile.AddFavorite(ctx, uid, symbol); err != nil {
		s.logger.Error().Err(err).Str("user", uid).Str("symbol", symbol).Msg("Failed to add favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}

	s.app.Activity.Record(ctx, uid, "favorite_add", map[string]any{
		"symbol": strings.ToUpper(symbol),
	})

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Added %s to favorites", symbol),
	})
}

// handleFavoriteRemove serves DELETE /api/favorites/{symbol}.
func (s *Server) handleFavoriteRemove(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	symbol := PathParam(r, "/api/favorites/")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx := r.Context()
	uid := common.ResolveUserID(ctx)

	if err := s.app.Profile.RemoveFavorite(ctx, uid, symbol); err != nil {
		s.logger.Error().Err(err).Str("user", uid).Str("symbol", symbol).Msg("Failed to remove favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}

	s.app.Activity.Record(ctx, uid, "favorite_remove", map[string]any{
		"symbol": strings.ToUpper(symbol),
	})

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Removed %s from favorites", symbol),
	})
}

// handleActivity serves GET /api/activity?limit=50, newest first.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	ctx := r.Context()
	uid := common.ResolveUserID(ctx)

	records, err := s.app.Activity.Recent(ctx, uid, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uid).Msg("Failed to fetch activity")
		WriteError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   records,
	})
}

package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// signJWT issues an HS256 token for an authenticated user. The subject is
// the user ID; email, name and role travel as claims so the auth middleware
// can rebuild the user context without a storage lookup.
func signJWT(user *models.InternalUser, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":   uuid.New().String(),
		"sub":   user.UserID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"iss":   "stockdeck-server",
		"iat":   now.Unix(),
		"exp":   now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and verifies a token, rejecting non-HMAC signing methods.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !token.Valid {
		return nil, nil, fmt.Errorf("invalid token")
	}
	return token, claims, nil
}

// handleAuthLogin exchanges a username (or email) and password for a bearer
// token. Unknown users and wrong passwords get the same response so the
// endpoint does not leak which accounts exist.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	store := s.app.Storage.InternalStore()
	user, err := store.GetUser(r.Context(), req.Username)
	if (err != nil || user == nil) && strings.Contains(req.Username, "@") {
		user, err = store.GetUserByEmail(r.Context(), req.Username)
	}
	if err != nil || user == nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	password := []byte(req.Password)
	if len(password) > 72 {
		password = password[:72]
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), password); err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Str("user", user.UserID).Msg("Failed to sign token")
		WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.logger.Info().Str("user", user.UserID).Msg("User authenticated")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"token": token,
			"user": map[string]interface{}{
				"username": user.UserID,
				"email":    user.Email,
				"name":     user.Name,
				"role":     user.Role,
			},
		},
	})
}

// handleUserCreate registers a new user with a bcrypt-hashed password.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if err := validateUsername(req.Username); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "password is required")
		return
	}

	if existing, err := s.app.Storage.InternalStore().GetUser(r.Context(), req.Username); err == nil && existing != nil {
		WriteError(w, http.StatusConflict, "user already exists")
		return
	}

	// bcrypt ignores input beyond 72 bytes; truncate explicitly so the
	// login path hashes the same prefix.
	password := []byte(req.Password)
	if len(password) > 72 {
		password = password[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = "user"
	}

	now := time.Now().UTC()
	user := &models.InternalUser{
		UserID:       req.Username,
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := s.app.Storage.InternalStore().SaveUser(r.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("user", user.UserID).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.logger.Info().Str("user", user.UserID).Str("role", user.Role).Msg("User created")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"username": user.UserID,
			"email":    user.Email,
			"name":     user.Name,
			"role":     user.Role,
		},
	})
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) < 3 || len(username) > 64 {
		return fmt.Errorf("username must be between 3 and 64 characters")
	}
	for _, r := range username {
		valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' || r == '@'
		if !valid {
			return fmt.Errorf("username may only contain lowercase letters, digits, '.', '_', '-' and '@'")
		}
	}
	return nil
}

// This is a **mock authentication service**, designed to provide JWT tokens
// for the visit log service, simulating user authentication.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/auth"
	"github.com/gartstein/visitlog/internal/visitlog/config"
	"go.uber.org/zap"
)

const defaultPort = "8081" // Default port for the authentication service

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenHandler struct {
	secret string
	logger *zap.Logger
}

// ServeHTTP issues a token for the user named in the "user" query
// parameter, or a fixed demo user.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "12345"
	}

	token, err := auth.GenerateToken(userID, h.secret, auth.DefaultTokenTTL)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token, ExpiresAt: time.Now().Add(auth.DefaultTokenTTL).UTC()}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("Failed to encode token", zap.Error(err))
	}
	h.logger.Info("Token issued", zap.String("user", userID))
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
		secret = cfg.JWTSecret
	}
	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/token", &tokenHandler{secret: secret, logger: logger.Named("auth")})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Authentication service running", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("authentication service failed", zap.Error(err))
	}
}

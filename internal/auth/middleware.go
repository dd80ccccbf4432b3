package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Middleware authenticates the read API with either a static API key header
// or an HMAC-signed bearer token. Requests pass when either check succeeds.
type Middleware struct {
	secret     []byte
	apiKeyHash [32]byte
	headerName string
	hasAPIKey  bool
}

func NewMiddleware(jwtSecret, apiKey, headerName string) *Middleware {
	m := &Middleware{
		secret:     []byte(jwtSecret),
		headerName: headerName,
	}
	if apiKey != "" {
		m.apiKeyHash = sha256.Sum256([]byte(apiKey))
		m.hasAPIKey = true
	}
	return m
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.hasAPIKey {
			if key := r.Header.Get(m.headerName); key != "" {
				hash := sha256.Sum256([]byte(key))
				if subtle.ConstantTimeCompare(hash[:], m.apiKeyHash[:]) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
		}

		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing credentials")
			return
		}
		// An empty secret must never verify tokens: HS256 happily signs
		// with the empty string.
		if len(m.secret) == 0 {
			writeError(w, http.StatusUnauthorized, "bearer auth not configured")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

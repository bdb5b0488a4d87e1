package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	const secret = "test-secret"
	token, err := GenerateToken("alice", secret, time.Hour)
	require.NoError(t, err)
	foreign, err := GenerateToken("alice", "other-secret", time.Hour)
	require.NoError(t, err)

	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = Subject(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := HTTPMiddleware(next, secret)

	tests := []struct {
		name        string
		method      string
		path        string
		auth        string
		wantStatus  int
		wantSubject string
	}{
		{"list is open", http.MethodGet, "/v1/companies", "", http.StatusOK, ""},
		{"export is open", http.MethodGet, "/v1/export/companies.csv", "", http.StatusOK, ""},
		{"create needs token", http.MethodPost, "/v1/companies", "", http.StatusUnauthorized, ""},
		{"create with token", http.MethodPost, "/v1/companies", "Bearer " + token, http.StatusOK, "alice"},
		{"update worklog with token", http.MethodPatch, "/v1/worklogs/1", "Bearer " + token, http.StatusOK, "alice"},
		{"delete draft without token", http.MethodDelete, "/v1/companies/1/draft", "", http.StatusUnauthorized, ""},
		{"save draft wrong secret", http.MethodPut, "/v1/companies/1/draft", "Bearer " + foreign, http.StatusUnauthorized, ""},
		{"import missing prefix", http.MethodPost, "/v1/import/companies", token, http.StatusUnauthorized, ""},
		{"outside api", http.MethodPost, "/healthz", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantSubject, subject)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("bob", "s3cret", 0)
	require.NoError(t, err)

	claims, err := validateToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bob", claims["sub"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), exp.Time, time.Minute)
}

func TestSubject_NoClaims(t *testing.T) {
	assert.Equal(t, "", Subject(context.Background()))
}

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewVerifier_ShortSecret(t *testing.T) {
	_, err := NewVerifier("short")
	assert.Error(t, err)
}

func TestVerifier_IssueAndVerify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	token, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifier_Verify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	other, err := NewVerifier("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", time.Hour)
	require.NoError(t, err)

	expired, err := v.Issue("user-1", -time.Hour)
	require.NoError(t, err)

	subjectOnly, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{name: "wrong signature", token: foreign, wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrInvalidToken},
		{name: "subject fallback", token: subjectOnly, wantID: "user-2"},
		{name: "no user id", token: noUser, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)
	valid, err := v.Issue("user-1", time.Hour)
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(v, zap.NewNop())(next)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantUser string
	}{
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, wantCode: http.StatusOK, wantUser: "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/task", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantUser, seen)
			if tt.wantCode == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

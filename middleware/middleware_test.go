package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/globals"
)

func signed(t *testing.T, userID string, secret []byte, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:           userID,
		Username:         "traveler",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, _ := r.Context().Value(globals.UserIDKey).(string)
	w.Write([]byte(id))
}

func TestAuthenticate(t *testing.T) {
	valid := signed(t, "u1", globals.JwtSecret, time.Now().Add(time.Hour))
	expired := signed(t, "u1", globals.JwtSecret, time.Now().Add(-time.Hour))
	forged := signed(t, "u1", []byte("other-secret"), time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "u1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"no bearer prefix", valid, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			Authenticate(echoUser)(rec, req, nil)
			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticateWebsocketQueryToken(t *testing.T) {
	token := signed(t, "u2", globals.JwtSecret, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	rec := httptest.NewRecorder()
	Authenticate(echoUser)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", rec.Body.String())

	plain := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
	rec = httptest.NewRecorder()
	Authenticate(echoUser)(rec, plain, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "query tokens are only for websocket upgrades")
}

func TestOptionalAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "u3", globals.JwtSecret, time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, "u3", rec.Body.String())
}

func TestValidateJWT(t *testing.T) {
	claims, err := ValidateJWT("Bearer " + signed(t, "u4", globals.JwtSecret, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "u4", claims.UserID)

	_, err = ValidateJWT("Bearer")
	assert.Error(t, err)
}

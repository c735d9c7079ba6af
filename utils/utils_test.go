package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/globals"
)

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusTeapot, "short and stout")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "short and stout", body["error"])
}

func TestGetUserIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserIDFromRequest(req))

	req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "u1"))
	assert.Equal(t, "u1", GetUserIDFromRequest(req))
}

func TestQueryBool(t *testing.T) {
	assert.Nil(t, QueryBool(httptest.NewRequest(http.MethodGet, "/", nil), "published"))
	assert.True(t, *QueryBool(httptest.NewRequest(http.MethodGet, "/?published=TRUE", nil), "published"))
	assert.False(t, *QueryBool(httptest.NewRequest(http.MethodGet, "/?published=no", nil), "published"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:52311"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "198.51.100.4", ClientIP(req, nil), "forwarded header ignored without trusted proxies")

	proxies, invalid := ParsePrefixes("10.0.0.0/8, 192.168.1.5, bogus")
	assert.Equal(t, []string{"bogus"}, invalid)
	require.Len(t, proxies, 2)

	assert.Equal(t, "198.51.100.4", ClientIP(req, proxies), "untrusted peer cannot choose its key")

	req.RemoteAddr = "10.0.0.7:52311"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.9, 192.168.1.5")
	assert.Equal(t, "203.0.113.9", ClientIP(req, proxies), "rightmost untrusted hop wins")

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.7", ClientIP(req, proxies))
}

func TestGetUUIDIsUnique(t *testing.T) {
	assert.NotEqual(t, GetUUID(), GetUUID())
	assert.Len(t, GetUUID(), 36)
}

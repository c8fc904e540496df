package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgedao/forgeboard/pkg/config"
)

func sessionCookie(t *testing.T, data SessionData) *http.Cookie {
	t.Helper()

	value, err := encodeSession(&data)
	require.NoError(t, err)

	return &http.Cookie{Name: sessionCookieName, Value: value}
}

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionMiddleware())
	router.GET("/whoami", func(c *gin.Context) {
		session := GetSession(c)
		if session == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID})
	})
	return router
}

func TestSessionCookieRoundTrip(t *testing.T) {
	config.Load()
	router := sessionRouter()

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(sessionCookie(t, SessionData{
		UserID:    "user-1",
		Username:  "alice",
		Rank:      "Code Novice",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	config.Load()
	router := sessionRouter()

	// Forge a payload but keep a tag computed over different data.
	forged, _ := json.Marshal(SessionData{
		UserID:    "someone-else",
		Username:  "mallory",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	cookie := &http.Cookie{
		Name:  sessionCookieName,
		Value: base64.RawURLEncoding.EncodeToString(forged) + "." + sign("unrelated"),
	}

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestSessionRejectsExpiredCookie(t *testing.T) {
	config.Load()
	router := sessionRouter()

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(sessionCookie(t, SessionData{
		UserID:    "user-1",
		Username:  "alice",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestDecodeSessionRejectsMalformedValue(t *testing.T) {
	config.Load()

	for _, value := range []string{"", "no-dot", "not-base64!.tag"} {
		_, err := decodeSession(value)
		assert.Error(t, err, value)
	}
}

func TestAuthRequired(t *testing.T) {
	config.Load()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionMiddleware())
	router.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("Without session", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("With session", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.AddCookie(sessionCookie(t, SessionData{
			UserID:    "user-1",
			Username:  "alice",
			ExpiresAt: time.Now().Add(time.Hour),
		}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/forgedao/forgeboard/pkg/config"
	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "session"
	sessionTTL        = 24 * time.Hour
)

var errBadSessionCookie = errors.New("malformed session cookie")

// SessionData is the signed payload carried by the session cookie.
type SessionData struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Rank      string    `json:"rank"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionData) expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionMiddleware decodes the session cookie, if present, into the
// request context. Invalid or expired cookies leave the session unset.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			if session, err := decodeSession(cookie); err == nil && !session.expired() {
				c.Set("session", session)
			}
		}
		c.Next()
	}
}

// SetSession issues a fresh session cookie for the signed-in user.
func SetSession(c *gin.Context, userID, username, rank string) error {
	value, err := encodeSession(&SessionData{
		UserID:    userID,
		Username:  username,
		Rank:      rank,
		ExpiresAt: time.Now().Add(sessionTTL),
	})
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookieName, value, int(sessionTTL.Seconds()), "/", "", false, true)
	return nil
}

// ClearSession expires the session cookie.
func ClearSession(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
}

// GetSession returns the decoded session for the request, or nil when
// the caller is anonymous.
func GetSession(c *gin.Context) *SessionData {
	if v, ok := c.Get("session"); ok {
		if session, ok := v.(*SessionData); ok {
			return session
		}
	}
	return nil
}

// encodeSession serializes the payload as base64(JSON) joined with its
// HMAC-SHA256 tag by a dot.
func encodeSession(session *SessionData) (string, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + sign(payload), nil
}

func decodeSession(value string) (*SessionData, error) {
	payload, tag, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(tag), []byte(sign(payload))) {
		return nil, errBadSessionCookie
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	session := &SessionData{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, err
	}
	return session, nil
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(config.AppConfig.Session.Secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

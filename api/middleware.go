package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorKey    = "actor"
	settingsKey = "settings"
)

type SettingsSource interface {
	Current(ctx context.Context) (domain.Settings, error)
}

// Authenticator resolves the caller from the headers set by the session
// gateway. A request without a user id continues as anonymous and is
// rejected by the operations that need a member.
func Authenticator() gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor domain.Actor
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
				return
			}
			actor.UserID = id
			actor.IsAdmin = strings.EqualFold(c.GetHeader(HeaderUserRole), "admin")
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Settings loads the current cycle settings once per request.
func Settings(source SettingsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := source.Current(c.Request.Context())
		if err != nil {
			log.WithError(err).Error("load settings")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(settingsKey, settings)
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(started).String(),
		})
		if actor, ok := c.Get(actorKey); ok {
			entry = entry.WithField("user_id", actor.(domain.Actor).UserID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

func requestFrom(c *gin.Context) domain.Request {
	settings := domain.DefaultSettings()
	if v, ok := c.Get(settingsKey); ok {
		if s, ok := v.(domain.Settings); ok {
			settings = s
		}
	}
	return domain.Request{Actor: actorFrom(c), Settings: settings}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(settings SettingsSource, register func(*gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticator(), Settings(settings))
	register(router)
	return router
}

func TestAuthenticator(t *testing.T) {
	testCases := []struct {
		name       string
		userID     string
		role       string
		wantStatus int
		wantActor  domain.Actor
	}{
		{"Anonymous", "", "", http.StatusOK, domain.Actor{}},
		{"Member", "7", "", http.StatusOK, domain.Actor{UserID: 7}},
		{"Admin", "8", "Admin", http.StatusOK, domain.Actor{UserID: 8, IsAdmin: true}},
		{"Role without user", "", "admin", http.StatusOK, domain.Actor{}},
		{"Malformed id", "abc", "", http.StatusUnauthorized, domain.Actor{}},
		{"Negative id", "-1", "", http.StatusUnauthorized, domain.Actor{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(Authenticator())

			var got domain.Actor
			router.GET("/whoami", func(c *gin.Context) {
				got = actorFrom(c)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.userID != "" {
				req.Header.Set(HeaderUserID, tc.userID)
			}
			if tc.role != "" {
				req.Header.Set(HeaderUserRole, tc.role)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantActor, got)
		})
	}
}

func TestSettingsMiddleware(t *testing.T) {
	source := &MockSettingsSource{}
	closed := domain.DefaultSettings()
	closed.SubmissionsOpen = false
	source.On("Current", mock.Anything).Return(closed, nil).Once()

	var got domain.Request
	router := newTestRouter(source, func(r *gin.Engine) {
		r.GET("/req", func(c *gin.Context) {
			got = requestFrom(c)
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	req.Header.Set(HeaderUserID, "3")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, got.Settings.SubmissionsOpen)
	assert.Equal(t, int64(3), got.Actor.UserID)
	source.AssertExpectations(t)
}

func TestSettingsMiddleware_Error(t *testing.T) {
	source := &MockSettingsSource{}
	source.On("Current", mock.Anything).Return(domain.Settings{}, errors.New("db down")).Once()

	router := newTestRouter(source, func(r *gin.Engine) {
		r.GET("/req", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/req", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRespondError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Validation", domain.NewValidationError("amount", "bad"), http.StatusUnprocessableEntity},
		{"Wrapped validation", fmt.Errorf("wrap: %w", domain.ErrTicketUnavailable), http.StatusUnprocessableEntity},
		{"Unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"Forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"Payment not found", domain.ErrPaymentNotFound, http.StatusNotFound},
		{"Ticket not found", domain.ErrTicketNotFound, http.StatusNotFound},
		{"Unknown", errors.New("pq: deadlock detected"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "deadlock")
		})
	}
}

func TestRespondError_ValidationBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, domain.ErrTicketUnavailable)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"ticket_number": "ticket is not available"}, body.Errors)
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps workflow errors to status codes. Anything it does not
// recognize is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{ve.Field: ve.Message}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithFields(log.Fields{"method": c.Request.Method, "path": c.FullPath()}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathInt64(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func pathInt(c *gin.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return n, nil
}

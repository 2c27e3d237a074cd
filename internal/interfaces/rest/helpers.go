package rest

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadbridge/backend/internal/interfaces/middleware"
	"github.com/leadbridge/backend/pkg/errors"
)

// GetTenantFromContext extracts the authenticated tenant ID from gin.Context
func GetTenantFromContext(c *gin.Context) string {
	tenant, exists := c.Get(middleware.ContextKeyTenant)
	if !exists {
		return ""
	}
	id, _ := tenant.(string)
	return id
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		"error":   message,
		"message": message,
		"code":    errorCode,
		"data":    nil,
	})
}

// RespondData sends a standardised success envelope
func RespondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"error": nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

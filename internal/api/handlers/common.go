package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
)

// getUserID extracts and validates user ID from context
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, fmt.Errorf("user ID not found in context")
	}

	switch v := userIDVal.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("invalid user ID type in context")
	}
}

// respondError sends a standardized error response
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondUnauthorized sends an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// respondBadRequest sends a bad request error
func respondBadRequest(c *gin.Context, message string, details ...map[string]interface{}) {
	var det map[string]interface{}
	if len(details) > 0 {
		det = details[0]
	}
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message, det)
}

// respondInternalError sends an internal server error
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// respondSuccess sends a success response with data
func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// respondCreated sends a created response with data
func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// respondDomainError maps a domain error onto the right HTTP status.
func respondDomainError(c *gin.Context, err error) {
	code := apperrors.GetErrorCode(err)
	details := apperrors.GetErrorDetails(err)

	switch {
	case apperrors.IsNotFound(err):
		respondError(c, http.StatusNotFound, code, err.Error(), details)
	case apperrors.IsValidation(err):
		respondError(c, http.StatusBadRequest, code, err.Error(), details)
	case apperrors.IsConflict(err):
		respondError(c, http.StatusConflict, code, err.Error(), details)
	default:
		respondInternalError(c, "Internal server error")
	}
}

// parseUUIDParam parses a path parameter into a UUID.
func parseUUIDParam(c *gin.Context, param string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(param))
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Internal server error"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}

func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, errorResponse{Error: message})
}

func respondUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, errorResponse{Error: message})
}

func respondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
}

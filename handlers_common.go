package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/velastore/tienda_backend/middlewares"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

func parseIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func bindErrorResponse(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// errorResponse maps domain errors to HTTP status codes.
func errorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorOrderTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case isServerError(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// isServerError separates infrastructure failures from validation rejections
// so a DB outage does not get blamed on the caller.
func isServerError(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction)
}

// adminIdentity pulls the authenticated admin's id and name out of the
// request context for ledger attribution.
func adminIdentity(c *gin.Context) (int, string) {
	claims := middlewares.CtxValue(c.Request.Context())
	if claims == nil {
		return 0, ""
	}
	return claims.ID, claims.Name
}

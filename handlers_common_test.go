package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/velastore/tienda_backend/utils"
)

// Validation rejections stay client errors; infrastructure failures must
// surface as 500, not get blamed on the request.
func TestErrorResponseStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("product 7: %w", utils.ErrorRecordNotFound), http.StatusNotFound},
		{"terminal order", utils.ErrorOrderTerminalState, http.StatusConflict},
		{"validation", errors.New("address is required for delivery orders"), http.StatusBadRequest},
		{"mysql failure", &mysqldriver.MySQLError{Number: 1040, Message: "Too many connections"}, http.StatusInternalServerError},
		{"wrapped mysql failure", fmt.Errorf("save product: %w", &mysqldriver.MySQLError{Number: 1213}), http.StatusInternalServerError},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			errorResponse(c, tc.err)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

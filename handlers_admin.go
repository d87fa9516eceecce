package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
)

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		user, err := models.VerifyLogin(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, user.Name, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

/* settings */

// Only keys with this prefix are visible without authentication.
const publicSettingPrefix = "public_"

func getPublicSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetSettings(c.Request.Context())
		if err != nil {
			errorResponse(c, err)
			return
		}

		public := make(map[string]string)
		for _, s := range settings {
			if strings.HasPrefix(s.Key, publicSettingPrefix) {
				public[s.Key] = s.Value
			}
		}
		c.JSON(http.StatusOK, gin.H{"settings": public})
	}
}

func getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetSettings(c.Request.Context())
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"settings": settings})
	}
}

type upsertSettingRequest struct {
	Value string `json:"value"`
}

func upsertSettingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("key"))
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
			return
		}

		var req upsertSettingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindErrorResponse(c, err)
			return
		}

		setting, err := models.UpsertSetting(c.Request.Context(), key, req.Value)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}

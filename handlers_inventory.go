package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
	"github.com/velastore/tienda_backend/workflow"
)

type adjustInventoryRequest struct {
	ProductId   int                       `json:"product_id" binding:"required"`
	VariantId   *int                      `json:"variant_id"`
	SetQuantity *int                      `json:"set_quantity"`
	AdjustBy    int                       `json:"adjust_by"`
	Reason      models.InventoryLogReason `json:"reason"`
	Details     string                    `json:"details"`
}

func adjustInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adjustInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindErrorResponse(c, err)
			return
		}
		if req.SetQuantity == nil && req.AdjustBy == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "set_quantity or adjust_by is required"})
			return
		}

		reason := req.Reason
		if reason == "" {
			reason = models.InventoryLogReasonManual
		}
		// only the manual reasons are accepted from the API
		if reason != models.InventoryLogReasonManual && reason != models.InventoryLogReasonAdjustment {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason must be manual or adjustment"})
			return
		}

		userId, userName := adminIdentity(c)
		entry, err := workflow.ApplyInventoryChange(c.Request.Context(), &workflow.InventoryChange{
			ProductId:   req.ProductId,
			VariantId:   req.VariantId,
			SetQuantity: req.SetQuantity,
			AdjustBy:    req.AdjustBy,
			Reason:      reason,
			UserId:      utils.NilIfEmpty(userId),
			AdminName:   userName,
			Details:     req.Details,
		})
		if err != nil {
			errorResponse(c, err)
			return
		}
		if entry == nil {
			c.JSON(http.StatusOK, gin.H{"changed": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"changed": true, "log": entry})
	}
}

func getInventoryLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.InventoryLogFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindErrorResponse(c, err)
			return
		}

		logs, pageInfo, err := models.GetInventoryLogs(c.Request.Context(), &filter)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "page_info": pageInfo})
	}
}

func exportInventoryLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.InventoryLogFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindErrorResponse(c, err)
			return
		}

		buf, err := models.ExportInventoryLogsExcel(c.Request.Context(), &filter)
		if err != nil {
			errorResponse(c, err)
			return
		}

		filename := fmt.Sprintf("inventory-logs-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes())
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/workflow"
)

func checkoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		order, err := workflow.CreateOrder(c.Request.Context(), &input)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func getOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.OrderFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindErrorResponse(c, err)
			return
		}

		orders, pageInfo, err := models.GetOrders(c.Request.Context(), &filter)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "page_info": pageInfo})
	}
}

func getOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderId := c.Param("id")
		if orderId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		order, err := models.GetOrderById(c.Request.Context(), orderId)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

type transitionOrderRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func transitionOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderId := c.Param("id")
		if orderId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req transitionOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindErrorResponse(c, err)
			return
		}

		userId, userName := adminIdentity(c)
		order, err := workflow.TransitionOrderStatus(c.Request.Context(), orderId, req.Status, userId, userName)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velastore/tienda_backend/models"
)

/* public storefront */

func getProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ProductFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindErrorResponse(c, err)
			return
		}
		filter.IncludeDiscontinued = false

		products, pageInfo, err := models.GetProducts(c.Request.Context(), &filter)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products, "page_info": pageInfo})
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		product, err := models.GetProductById(c.Request.Context(), id)
		if err != nil {
			errorResponse(c, err)
			return
		}
		// discontinued products disappear from the public surface
		if product.IsDiscontinued() {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func getCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := models.GetProductCategories(c.Request.Context())
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

/* admin catalog */

func adminGetProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ProductFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindErrorResponse(c, err)
			return
		}
		filter.IncludeDiscontinued = true

		products, pageInfo, err := models.GetProducts(c.Request.Context(), &filter)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products, "page_info": pageInfo})
	}
}

func adminGetProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		product, err := models.GetProductById(c.Request.Context(), id)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		userId, userName := adminIdentity(c)
		product, err := models.CreateProduct(c.Request.Context(), &input, userId, userName)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		userId, userName := adminIdentity(c)
		product, err := models.UpdateProduct(c.Request.Context(), id, &input, userId, userName)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func discontinueProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		userId, userName := adminIdentity(c)
		if err := models.DiscontinueProduct(c.Request.Context(), id, userId, userName); err != nil {
			errorResponse(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

/* variants */

func createVariantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.NewProductVariant
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		variant, err := models.CreateProductVariant(c.Request.Context(), productId, &input)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusCreated, variant)
	}
}

func updateVariantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.NewProductVariant
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		variant, err := models.UpdateProductVariant(c.Request.Context(), id, &input)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, variant)
	}
}

func deleteVariantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		if err := models.DeleteProductVariant(c.Request.Context(), id); err != nil {
			errorResponse(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

/* categories */

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProductCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		category, err := models.CreateProductCategory(c.Request.Context(), &input)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func updateCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.NewProductCategory
		if err := c.ShouldBindJSON(&input); err != nil {
			bindErrorResponse(c, err)
			return
		}

		category, err := models.UpdateProductCategory(c.Request.Context(), id, &input)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		if err := models.DeleteProductCategory(c.Request.Context(), id); err != nil {
			errorResponse(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

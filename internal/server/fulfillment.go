package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListOpenSalesOrders(c *gin.Context) {
	rows, err := s.fulfillment.ListSalesOrders(c.Request.Context(), sessionFrom(c), parseFields(c.Query("select")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) ListGoodsDeliveries(c *gin.Context) {
	method := strings.TrimSpace(c.Query("shipping_method"))
	deliveries, err := s.fulfillment.ListGoodsDeliveries(c.Request.Context(), sessionFrom(c), method)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": deliveries})
}

func (s *Server) UpdateGoodsDelivery(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := s.fulfillment.UpdateGoodsDelivery(c.Request.Context(), sessionFrom(c), id, fields); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListPurchaseOrders(c *gin.Context) {
	supplier := strings.TrimSpace(c.Query("supplier"))
	rows, err := s.fulfillment.ListPurchaseOrdersBySupplier(c.Request.Context(), sessionFrom(c), supplier, parseFields(c.Query("select")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

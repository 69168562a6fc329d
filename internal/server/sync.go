package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	salesyncdomain "github.com/smallbiznis/exactsync/internal/salesync/domain"
)

type syncErrorResponse struct {
	Error errorPayload          `json:"error"`
	Data  salesyncdomain.Result `json:"data"`
}

type updateSalesOrderReferenceRequest struct {
	YourRef     string `json:"your_ref"`
	ShopOrderID string `json:"shop_order_id"`
}

func (s *Server) CreateSalesOrder(c *gin.Context) {
	c.Set("sync_kind", string(salesyncdomain.WorkflowSalesOrder))

	var order orderdomain.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.sync.CreateSalesOrder(c.Request.Context(), sessionFrom(c), order)
	s.respondSync(c, http.StatusCreated, result, err)
}

func (s *Server) CreateQuotation(c *gin.Context) {
	c.Set("sync_kind", string(salesyncdomain.WorkflowQuotation))

	var quotation orderdomain.Quotation
	if err := c.ShouldBindJSON(&quotation); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.sync.CreateQuotation(c.Request.Context(), sessionFrom(c), quotation)
	s.respondSync(c, http.StatusCreated, result, err)
}

func (s *Server) UpdateSalesOrderReference(c *gin.Context) {
	c.Set("sync_kind", string(salesyncdomain.WorkflowUpdateSalesOrder))

	var req updateSalesOrderReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID := strings.TrimSpace(c.Param("id"))
	result, err := s.sync.UpdateSalesOrder(c.Request.Context(), sessionFrom(c), orderID, req.YourRef, req.ShopOrderID)
	s.respondSync(c, http.StatusOK, result, err)
}

// respondSync returns the partial result next to the error so the caller
// can store the ERP ids that were created before the failing step.
func (s *Server) respondSync(c *gin.Context, status int, result salesyncdomain.Result, err error) {
	if err != nil {
		_ = c.Error(err)
		code, payload := mapErrorWithAuthorizeURL(err, s.authorizeURL)
		c.AbortWithStatusJSON(code, syncErrorResponse{Error: payload, Data: result})
		return
	}
	c.JSON(status, gin.H{"data": result})
}

func (s *Server) authorizeURL() string {
	return s.tokens.AuthorizationURL("")
}

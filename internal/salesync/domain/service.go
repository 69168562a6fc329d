package domain

import (
	"context"

	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
)

type Service interface {
	CreateSalesOrder(ctx context.Context, sess exactdomain.Session, order orderdomain.Order) (Result, error)
	CreateQuotation(ctx context.Context, sess exactdomain.Session, quotation orderdomain.Quotation) (Result, error)
	// UpdateSalesOrder rewrites only YourRef as yourRef + "/" + shopOrderID.
	UpdateSalesOrder(ctx context.Context, sess exactdomain.Session, orderID, yourRef, shopOrderID string) (Result, error)
}

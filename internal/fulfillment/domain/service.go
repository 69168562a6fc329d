package domain

import (
	"context"

	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
)

type Service interface {
	// ListSalesOrders returns shop orders (YourRef starting with "e") that
	// have not been re-referenced yet, with their lines expanded.
	ListSalesOrders(ctx context.Context, sess exactdomain.Session, fields []string) ([]Record, error)
	ListGoodsDeliveries(ctx context.Context, sess exactdomain.Session, shippingMethod string) ([]GoodsDelivery, error)
	UpdateGoodsDelivery(ctx context.Context, sess exactdomain.Session, id string, fields map[string]any) error
	ListPurchaseOrdersBySupplier(ctx context.Context, sess exactdomain.Session, supplierCode string, fields []string) ([]Record, error)
}

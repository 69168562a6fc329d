package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	"github.com/smallbiznis/exactsync/internal/fulfillment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// enrichConcurrency bounds the per-delivery contact and address reads.
const enrichConcurrency = 4

var (
	defaultSalesOrderFields    = []string{"OrderID", "OrderNumber", "OrderDate", "YourRef", "OrderedBy", "DeliveryAddress", "SalesOrderLines"}
	defaultPurchaseOrderFields = []string{"PurchaseOrderID", "OrderNumber", "Description", "SupplierCode", "PurchaseOrderLines"}
	goodsDeliveryFields        = []string{
		"EntryID", "DeliveryAccountName", "DeliveryAddress", "DeliveryContact", "Description",
		"DeliveryNumber", "ShippingMethodCode", "Remarks", "DeliveryContactPersonFullName",
		"GoodsDeliveryLines/SalesOrderNumber",
	}
	deliveryContactFields = []string{"Email", "Phone"}
	deliveryAddressFields = []string{"AccountName", "AddressLine1", "AddressLine2", "AddressLine3", "City", "ContactName", "Country", "Postcode"}
)

type Params struct {
	fx.In

	Cfg    config.Config
	Client exactdomain.Client
	Log    *zap.Logger
}

type Service struct {
	purchasePrefix string
	printedMarker  string
	client         exactdomain.Client
	log            *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		purchasePrefix: strings.ToLower(strings.TrimSpace(p.Cfg.Exact.PurchaseDescriptionPrefix)),
		printedMarker:  strings.TrimSpace(p.Cfg.Exact.PrintedMarker),
		client:         p.Client,
		log:            p.Log.Named("fulfillment.service"),
	}
}

func (s *Service) ListSalesOrders(ctx context.Context, sess exactdomain.Session, fields []string) ([]domain.Record, error) {
	rows := []domain.Record{}
	err := s.client.Get(ctx, sess, exactdomain.ResourceSalesOrders, exactdomain.Query{
		Filter: exactdomain.And(
			exactdomain.StartsWithLower("YourRef", "e"),
			exactdomain.Contains("YourRef", "/", false),
		),
		Select: fieldsOrDefault(fields, defaultSalesOrderFields),
		Expand: []string{"SalesOrderLines"},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListPurchaseOrdersBySupplier(ctx context.Context, sess exactdomain.Session, supplierCode string, fields []string) ([]domain.Record, error) {
	supplierCode = strings.TrimSpace(supplierCode)
	if supplierCode == "" {
		return nil, erperr.Validation("fulfillment.list_purchase_orders", "supplier code is required")
	}

	rows := []domain.Record{}
	err := s.client.Get(ctx, sess, exactdomain.ResourcePurchaseOrders, exactdomain.Query{
		Filter: exactdomain.And(
			exactdomain.TrimEq("SupplierCode", supplierCode),
			prefixClause(s.purchasePrefix),
			"DropShipment eq false",
		),
		Select: fieldsOrDefault(fields, defaultPurchaseOrderFields),
		Expand: []string{"PurchaseOrderLines"},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListGoodsDeliveries returns the deliveries of a shipping method whose
// remarks do not carry the printed marker yet.
func (s *Service) ListGoodsDeliveries(ctx context.Context, sess exactdomain.Session, shippingMethod string) ([]domain.GoodsDelivery, error) {
	shippingMethod = strings.TrimSpace(shippingMethod)
	if shippingMethod == "" {
		return nil, erperr.Validation("fulfillment.list_goods_deliveries", "shipping method is required")
	}

	method := exactdomain.TrimEq("ShippingMethodCode", shippingMethod)
	deliveries := []domain.GoodsDelivery{}
	err := s.client.Get(ctx, sess, exactdomain.ResourceGoodsDeliveries, exactdomain.Query{
		Filter: exactdomain.Or(
			exactdomain.And(method, exactdomain.Contains("Remarks", s.printedMarker, false)),
			exactdomain.And(exactdomain.IsNull("Remarks"), method),
		),
		Select: goodsDeliveryFields,
		Expand: []string{"GoodsDeliveryLines"},
	}, &deliveries)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range deliveries {
		delivery := &deliveries[i]
		g.Go(func() error {
			return s.enrich(gctx, sess, delivery)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deliveries, nil
}

// enrich adds the contact email and phone and the delivery address. A
// missing contact or address leaves the fields empty.
func (s *Service) enrich(ctx context.Context, sess exactdomain.Session, delivery *domain.GoodsDelivery) error {
	if id := strings.TrimSpace(delivery.DeliveryContact); id != "" {
		var contacts []exactdomain.Contact
		if err := s.client.Get(ctx, sess, exactdomain.ResourceContacts, exactdomain.Query{
			Filter: exactdomain.Eq("ID", exactdomain.GUID(id)),
			Select: deliveryContactFields,
		}, &contacts); err != nil {
			return err
		}
		if len(contacts) > 0 {
			delivery.Email = contacts[0].Email
			delivery.Phone = contacts[0].Phone
		}
	}

	if id := strings.TrimSpace(delivery.DeliveryAddress); id != "" {
		var addresses []exactdomain.Address
		if err := s.client.Get(ctx, sess, exactdomain.ResourceAddresses, exactdomain.Query{
			Filter: exactdomain.Eq("ID", exactdomain.GUID(id)),
			Select: deliveryAddressFields,
		}, &addresses); err != nil {
			return err
		}
		if len(addresses) > 0 {
			delivery.Address = &addresses[0]
		} else {
			s.log.Warn("delivery address not found",
				zap.String("entry_id", delivery.EntryID),
				zap.String("address_id", id),
			)
		}
	}
	return nil
}

func (s *Service) UpdateGoodsDelivery(ctx context.Context, sess exactdomain.Session, id string, fields map[string]any) error {
	const op = "fulfillment.update_goods_delivery"
	id = strings.TrimSpace(id)
	if id == "" {
		return erperr.Validation(op, "goods delivery id is required")
	}
	if len(fields) == 0 {
		return erperr.Validation(op, "no fields to update")
	}
	for name := range fields {
		if _, ok := domain.UpdatableGoodsDeliveryFields[name]; !ok {
			return erperr.Validation(op, fmt.Sprintf("field %q cannot be updated", name))
		}
	}
	if err := s.client.Put(ctx, sess, exactdomain.RecordPath(exactdomain.ResourceGoodsDeliveries, id), fields); err != nil {
		return err
	}
	s.log.Info("goods delivery updated", zap.String("entry_id", id), zap.Int("fields", len(fields)))
	return nil
}

func prefixClause(prefix string) string {
	if prefix == "" {
		return ""
	}
	return exactdomain.StartsWithLower("Description", prefix)
}

func fieldsOrDefault(fields, def []string) []string {
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return def
	}
	return kept
}

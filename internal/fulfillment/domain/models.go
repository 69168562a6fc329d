package domain

import exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"

// Record is an ERP row shaped by a caller-chosen $select.
type Record = map[string]any

// Expanded is the OData shape of an $expand-ed collection.
type Expanded[T any] struct {
	Results []T `json:"results"`
}

type GoodsDeliveryLine struct {
	SalesOrderNumber int64 `json:"SalesOrderNumber"`
}

// GoodsDelivery is an unprinted delivery enriched with the contact details
// and address the shipping labels need.
type GoodsDelivery struct {
	EntryID                       string                      `json:"EntryID"`
	DeliveryAccountName           string                      `json:"DeliveryAccountName"`
	DeliveryAddress               string                      `json:"DeliveryAddress"`
	DeliveryContact               string                      `json:"DeliveryContact"`
	DeliveryContactPersonFullName string                      `json:"DeliveryContactPersonFullName"`
	Description                   string                      `json:"Description"`
	DeliveryNumber                int64                       `json:"DeliveryNumber"`
	ShippingMethodCode            string                      `json:"ShippingMethodCode"`
	Remarks                       string                      `json:"Remarks"`
	GoodsDeliveryLines            Expanded[GoodsDeliveryLine] `json:"GoodsDeliveryLines"`

	Email   string               `json:"Email"`
	Phone   string               `json:"Phone"`
	Address *exactdomain.Address `json:"Address,omitempty"`
}

// UpdatableGoodsDeliveryFields lists the fields UpdateGoodsDelivery may write.
var UpdatableGoodsDeliveryFields = map[string]struct{}{
	"Remarks":        {},
	"Description":    {},
	"TrackingNumber": {},
	"ShippingMethod": {},
	"DeliveryDate":   {},
}

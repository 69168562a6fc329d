package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the buying organization. ErpID is set once the account has
// been synchronized and lets the next sync skip the lookup.
type Company struct {
	ID             string `json:"id" validate:"required,numeric"`
	ErpID          string `json:"erp_id,omitempty"`
	Name           string `json:"name" validate:"required"`
	Name2          string `json:"name_2,omitempty"`
	Addition       string `json:"addition,omitempty"`
	Street         string `json:"street" validate:"required"`
	HouseNumber    string `json:"house_number,omitempty"`
	ZipCode        string `json:"zip_code" validate:"required"`
	City           string `json:"city" validate:"required"`
	CountryCode    string `json:"country_code" validate:"required,len=2,alpha"`
	VATID          string `json:"vat_id,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty"`
	CustomerType   string `json:"customer_type,omitempty"`
	Classification string `json:"classification,omitempty"`
}

// Person is the ordering user and becomes an ERP contact of the account.
type Person struct {
	ErpID      string `json:"erp_id,omitempty"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty"`
	Salutation string `json:"salutation,omitempty"`
	Position   string `json:"position,omitempty"`
}

type Delivery struct {
	ErpID       string `json:"erp_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Street      string `json:"street" validate:"required"`
	HouseNumber string `json:"house_number,omitempty"`
	Additional  string `json:"additional,omitempty"`
	ZipCode     string `json:"zip_code" validate:"required"`
	City        string `json:"city" validate:"required"`
	CountryCode string `json:"country_code,omitempty" validate:"omitempty,len=2,alpha"`
}

type LineItem struct {
	SKU      string           `json:"sku" validate:"required"`
	Quantity decimal.Decimal  `json:"quantity"`
	Notes    string           `json:"notes,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	// DeliveryDays is the SKU lead time in business days.
	DeliveryDays int  `json:"delivery_days,omitempty" validate:"gte=0"`
	HasFile      bool `json:"has_file,omitempty"`
}

type Order struct {
	ID              string          `json:"id" validate:"required"`
	Date            time.Time       `json:"date"`
	Company         Company         `json:"company"`
	User            Person          `json:"user"`
	Delivery        Delivery        `json:"delivery"`
	DigitalBill     bool            `json:"digital_bill,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaymentNotice   string          `json:"payment_notice,omitempty"`
	Comments        string          `json:"comments,omitempty"`
	DeliveryCosts   decimal.Decimal `json:"delivery_costs"`
	ForwardingCosts decimal.Decimal `json:"forwarding_costs"`
	Coupon          decimal.Decimal `json:"coupon"`
	Items           []LineItem      `json:"items" validate:"min=1,dive"`
}

// Quotation is a price request; it carries no billing or cost data.
type Quotation struct {
	ID       string     `json:"id" validate:"required"`
	Date     time.Time  `json:"date"`
	Company  Company    `json:"company"`
	User     Person     `json:"user"`
	Delivery Delivery   `json:"delivery"`
	Comments string     `json:"comments,omitempty"`
	Items    []LineItem `json:"items" validate:"min=1,dive"`
}

// Country falls back to the company country when the delivery
// address has none.
func (d Delivery) Country(fallback string) string {
	if d.CountryCode != "" {
		return d.CountryCode
	}
	return fallback
}

// HasFile reports whether any line carries an uploaded file.
func (q Quotation) HasFile() bool {
	for _, item := range q.Items {
		if item.HasFile {
			return true
		}
	}
	return false
}

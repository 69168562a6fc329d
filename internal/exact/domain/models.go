package domain

import "strings"

// Session identifies whose credentials and which division a sync call uses.
// It is passed explicitly to every entry point.
type Session struct {
	UserID   string
	Division string
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.UserID) != "" && strings.TrimSpace(s.Division) != ""
}

// Account is a customer record under crm/Accounts.
type Account struct {
	ID              string `json:"ID,omitempty"`
	Code            string `json:"Code,omitempty"`
	Name            string `json:"Name,omitempty"`
	AddressLine1    string `json:"AddressLine1,omitempty"`
	AddressLine2    string `json:"AddressLine2,omitempty"`
	AddressLine3    string `json:"AddressLine3,omitempty"`
	Postcode        string `json:"Postcode,omitempty"`
	City            string `json:"City,omitempty"`
	Country         string `json:"Country,omitempty"`
	Email           string `json:"Email,omitempty"`
	Phone           string `json:"Phone,omitempty"`
	Status          string `json:"Status,omitempty"`
	VATNumber       string `json:"VATNumber,omitempty"`
	SalesVATCode    string `json:"SalesVATCode,omitempty"`
	GLAccountSales  string `json:"GLAccountSales,omitempty"`
	PriceList       string `json:"PriceList,omitempty"`
	InvoicingMethod int    `json:"InvoicingMethod,omitempty"`
	Classification1 string `json:"Classification1,omitempty"`
}

// AccountUpdate is the full-field PUT body sent when account drift is detected.
// Empty strings are sent so cleared fields are cleared in the ERP as well.
type AccountUpdate struct {
	Name           string `json:"Name"`
	AddressLine1   string `json:"AddressLine1"`
	AddressLine2   string `json:"AddressLine2"`
	AddressLine3   string `json:"AddressLine3"`
	Postcode       string `json:"Postcode"`
	City           string `json:"City"`
	Country        string `json:"Country"`
	Email          string `json:"Email"`
	Phone          string `json:"Phone"`
	Status         string `json:"Status"`
	VATNumber      string `json:"VATNumber"`
	SalesVATCode   string `json:"SalesVATCode"`
	GLAccountSales string `json:"GLAccountSales,omitempty"`
}

// InvoicingUpdate corrects only the invoicing method of an account.
type InvoicingUpdate struct {
	InvoicingMethod int `json:"InvoicingMethod"`
}

type Contact struct {
	ID                  string `json:"ID,omitempty"`
	Account             string `json:"Account,omitempty"`
	FirstName           string `json:"FirstName,omitempty"`
	LastName            string `json:"LastName,omitempty"`
	Email               string `json:"Email,omitempty"`
	Phone               string `json:"Phone,omitempty"`
	Title               string `json:"Title,omitempty"`
	JobTitleDescription string `json:"JobTitleDescription,omitempty"`
}

type ContactEmailUpdate struct {
	Email string `json:"Email"`
}

type ContactUpdate struct {
	FirstName           string `json:"FirstName"`
	LastName            string `json:"LastName"`
	Email               string `json:"Email"`
	Phone               string `json:"Phone"`
	Title               string `json:"Title"`
	JobTitleDescription string `json:"JobTitleDescription"`
}

type Address struct {
	ID           string `json:"ID,omitempty"`
	Account      string `json:"Account,omitempty"`
	AccountName  string `json:"AccountName,omitempty"`
	ContactName  string `json:"ContactName,omitempty"`
	AddressLine1 string `json:"AddressLine1,omitempty"`
	AddressLine2 string `json:"AddressLine2,omitempty"`
	AddressLine3 string `json:"AddressLine3,omitempty"`
	Postcode     string `json:"Postcode,omitempty"`
	City         string `json:"City,omitempty"`
	Country      string `json:"Country,omitempty"`
	Type         int    `json:"Type,omitempty"`
}

type AddressUpdate struct {
	AddressLine1 string `json:"AddressLine1"`
	AddressLine2 string `json:"AddressLine2"`
	AddressLine3 string `json:"AddressLine3"`
	Postcode     string `json:"Postcode"`
	City         string `json:"City"`
	Country      string `json:"Country"`
	Type         int    `json:"Type"`
}

// IDRecord is the projection used by every $select=ID lookup.
type IDRecord struct {
	ID string `json:"ID"`
}

type SalesOrderLine struct {
	Item         string   `json:"Item"`
	Quantity     float64  `json:"Quantity"`
	Notes        string   `json:"Notes,omitempty"`
	NetPrice     *float64 `json:"NetPrice,omitempty"`
	DeliveryDate string   `json:"DeliveryDate,omitempty"`
	VATCode      string   `json:"VATCode,omitempty"`
}

type SalesOrder struct {
	OrderDate              string           `json:"OrderDate,omitempty"`
	OrderedBy              string           `json:"OrderedBy"`
	OrderedByContactPerson string           `json:"OrderedByContactPerson,omitempty"`
	InvoiceToContactPerson string           `json:"InvoiceToContactPerson,omitempty"`
	DeliveryAddress        string           `json:"DeliveryAddress,omitempty"`
	YourRef                string           `json:"YourRef,omitempty"`
	Remarks                string           `json:"Remarks,omitempty"`
	PaymentCondition       string           `json:"PaymentCondition,omitempty"`
	PaymentReference       string           `json:"PaymentReference,omitempty"`
	AmountDiscountExclVat  float64          `json:"AmountDiscountExclVat,omitempty"`
	SalesOrderLines        []SalesOrderLine `json:"SalesOrderLines"`
}

// SalesOrderCreated is the part of the creation response the engine reads.
type SalesOrderCreated struct {
	OrderID     string `json:"OrderID"`
	OrderNumber int64  `json:"OrderNumber"`
}

type SalesOrderReference struct {
	YourRef string `json:"YourRef"`
}

type Quotation struct {
	OrderAccount        string           `json:"OrderAccount"`
	OrderAccountContact string           `json:"OrderAccountContact,omitempty"`
	DeliveryAddress     string           `json:"DeliveryAddress,omitempty"`
	Description         string           `json:"Description,omitempty"`
	Remarks             string           `json:"Remarks,omitempty"`
	QuotationLines      []SalesOrderLine `json:"QuotationLines"`
}

type QuotationCreated struct {
	QuotationID     string `json:"QuotationID"`
	QuotationNumber int64  `json:"QuotationNumber"`
}

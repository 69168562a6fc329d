package domain

import "strings"

// Source tells how a resolved ERP id was obtained.
type Source string

const (
	SourceKnown   Source = "known"
	SourceFound   Source = "found"
	SourceCreated Source = "created"
)

type Resolution struct {
	ID     string
	Source Source
}

// Existed reports whether the record was in the ERP before this call, which
// is when reconciliation applies.
func (r Resolution) Existed() bool {
	return r.Source != SourceCreated
}

// AccountOptions shape the account payload beyond the company data.
type AccountOptions struct {
	DigitalBill bool
	// Status overrides the company customer type, e.g. prospect accounts
	// created for quotations.
	Status string
	// DeliveryCountry feeds the VAT treatment of the account next to the
	// customer country. Empty means the customer country.
	DeliveryCountry string
}

// Invoice contact name template.
const (
	InvoiceContactFirstName = "E-Mail"
	InvoiceContactLastName  = "eRechnung"
)

// AccountCode derives the ERP customer code: five-digit ids get a "10" prefix.
func AccountCode(id string) string {
	id = strings.TrimSpace(id)
	if len(id) == 5 {
		return "10" + id
	}
	return id
}

// VATNumber normalizes a VAT id for the account record. Accounts in
// blankCountry carry no VAT number.
func VATNumber(vatID, country, blankCountry string) string {
	if blankCountry != "" && strings.EqualFold(strings.TrimSpace(country), blankCountry) {
		return ""
	}
	return strings.NewReplacer(".", "", "-", "").Replace(strings.TrimSpace(vatID))
}

// AddressLine joins street and house number the way the ERP stores them.
func AddressLine(street, houseNumber string) string {
	return strings.TrimSpace(strings.TrimSpace(street) + " " + strings.TrimSpace(houseNumber))
}

// Drifted compares two snapshots position by position.
func Drifted(domainValues, erpValues []string) bool {
	if len(domainValues) != len(erpValues) {
		return true
	}
	for i := range domainValues {
		if strings.TrimSpace(domainValues[i]) != strings.TrimSpace(erpValues[i]) {
			return true
		}
	}
	return false
}

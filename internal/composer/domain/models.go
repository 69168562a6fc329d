package domain

import "time"

// TaxContext carries the inputs of the VAT matrix for one order.
type TaxContext struct {
	CustomerCountry string
	DeliveryCountry string
	VATID           string
}

type LineOptions struct {
	// DeliveryDates adds a delivery date computed from each SKU lead time.
	DeliveryDates bool
}

// References are the resolved ERP ids a header points to.
type References struct {
	AccountID        string
	ContactID        string
	InvoiceContactID string
	AddressID        string
}

// AddBusinessDays moves t forward by n weekdays, skipping Saturday and Sunday.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}

package domain

import (
	"context"

	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
)

type Composer interface {
	// ComposeOrderLines fails with erperr.ErrItemNotFound, listing every
	// unknown SKU, rather than returning a partial set of lines.
	ComposeOrderLines(ctx context.Context, sess exactdomain.Session, items []orderdomain.LineItem, tax TaxContext, opts LineOptions) ([]exactdomain.SalesOrderLine, error)
	ComposeCostLines(ctx context.Context, sess exactdomain.Session, order orderdomain.Order, tax TaxContext) ([]exactdomain.SalesOrderLine, error)
	// PaymentCondition resolves the ERP payment condition code. An unmatched
	// combination is a validation error in strict mode and "" otherwise.
	PaymentCondition(method, notice string) (string, error)
	ComposeHeader(order orderdomain.Order, refs References, paymentCondition string, lines []exactdomain.SalesOrderLine) exactdomain.SalesOrder
	ComposeQuotation(quotation orderdomain.Quotation, refs References, lines []exactdomain.SalesOrderLine) exactdomain.Quotation
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/exactsync/internal/catalog/domain"
	"github.com/smallbiznis/exactsync/internal/clock"
	composerdomain "github.com/smallbiznis/exactsync/internal/composer/domain"
	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	taxdomain "github.com/smallbiznis/exactsync/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	dateLayout            = "2006-01-02"
	quotationDateLayout   = "02.01.2006"
	quotationDescription  = "Angebotsanfrage"
	quotationFileSuffix   = " (Mit Datei)"
	digitalBillPaymentRef = "eRg."
)

type Params struct {
	fx.In

	Cfg     config.Config
	Rules   *config.RulesHolder
	Catalog catalogdomain.Catalog
	Tax     taxdomain.Resolver
	Clock   clock.Clock
	Log     *zap.Logger
}

type Service struct {
	strict  bool
	rules   *config.RulesHolder
	catalog catalogdomain.Catalog
	tax     taxdomain.Resolver
	clock   clock.Clock
	log     *zap.Logger
}

func New(p Params) composerdomain.Composer {
	return &Service{
		strict:  p.Cfg.Exact.StrictPaymentCondition,
		rules:   p.Rules,
		catalog: p.Catalog,
		tax:     p.Tax,
		clock:   p.Clock,
		log:     p.Log.Named("composer.service"),
	}
}

func (s *Service) ComposeOrderLines(ctx context.Context, sess exactdomain.Session, items []orderdomain.LineItem, tax composerdomain.TaxContext, opts composerdomain.LineOptions) ([]exactdomain.SalesOrderLine, error) {
	const op = "composer.compose_order_lines"
	if len(items) == 0 {
		return nil, erperr.Validation(op, "order has no line items")
	}

	vatCode := s.tax.ForSale(tax.CustomerCountry, tax.DeliveryCountry, tax.VATID).VATCode
	today := s.today()

	lines := make([]exactdomain.SalesOrderLine, 0, len(items))
	var missing []string
	for _, item := range items {
		itemID, found, err := s.catalog.ItemID(ctx, sess, item.SKU)
		if err != nil {
			return nil, err
		}
		if !found {
			missing = append(missing, item.SKU)
			continue
		}

		line := exactdomain.SalesOrderLine{
			Item:     itemID,
			Quantity: item.Quantity.InexactFloat64(),
			Notes:    item.Notes,
			VATCode:  vatCode,
		}
		if item.Price != nil {
			line.NetPrice = amount(*item.Price)
		}
		if opts.DeliveryDates {
			line.DeliveryDate = composerdomain.AddBusinessDays(today, item.DeliveryDays).Format(dateLayout)
		}
		lines = append(lines, line)
	}

	if len(missing) > 0 {
		s.log.Warn("order references unknown items", zap.Strings("skus", missing))
		return nil, erperr.ItemNotFound(op, missing)
	}
	return lines, nil
}

// ComposeCostLines adds one line per non-zero cost, priced at the cost and
// booked on the per-country cost item.
func (s *Service) ComposeCostLines(ctx context.Context, sess exactdomain.Session, order orderdomain.Order, tax composerdomain.TaxContext) ([]exactdomain.SalesOrderLine, error) {
	const op = "composer.compose_cost_lines"
	costs := s.rules.Get().Costs
	vatCode := s.tax.ForSale(tax.CustomerCountry, tax.DeliveryCountry, tax.VATID).VATCode

	var lines []exactdomain.SalesOrderLine
	for _, cost := range []struct {
		prefix string
		value  decimal.Decimal
	}{
		{costs.DeliveryItemPrefix, order.DeliveryCosts},
		{costs.ForwardingItemPrefix, order.ForwardingCosts},
	} {
		if !cost.value.IsPositive() {
			continue
		}
		itemID, found, err := s.catalog.CostItemID(ctx, sess, cost.prefix, tax.DeliveryCountry)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, erperr.ItemNotFound(op, []string{strings.TrimSpace(cost.prefix + " " + tax.DeliveryCountry)})
		}
		lines = append(lines, exactdomain.SalesOrderLine{
			Item:     itemID,
			Quantity: 1,
			NetPrice: amount(cost.value),
			VATCode:  vatCode,
		})
	}
	return lines, nil
}

func (s *Service) PaymentCondition(method, notice string) (string, error) {
	method = strings.TrimSpace(method)
	notice = strings.TrimSpace(notice)
	table := s.rules.Get().PaymentConditions

	for _, o := range table.Overrides {
		if o.Method == method && o.Notice == notice {
			return o.Code, nil
		}
	}
	for _, m := range table.Methods {
		if m.Method == method {
			return m.Code, nil
		}
	}

	if s.strict {
		return "", erperr.Validation("composer.payment_condition",
			fmt.Sprintf("no payment condition for method %q and notice %q", method, notice))
	}
	s.log.Warn("no payment condition, field omitted",
		zap.String("payment_method", method),
		zap.String("payment_notice", notice),
	)
	return "", nil
}

func (s *Service) ComposeHeader(order orderdomain.Order, refs composerdomain.References, paymentCondition string, lines []exactdomain.SalesOrderLine) exactdomain.SalesOrder {
	orderDate := order.Date
	if orderDate.IsZero() {
		orderDate = s.clock.Now()
	}
	invoiceTo := refs.InvoiceContactID
	if invoiceTo == "" {
		invoiceTo = refs.ContactID
	}

	header := exactdomain.SalesOrder{
		OrderDate:              orderDate.Format(dateLayout),
		OrderedBy:              refs.AccountID,
		OrderedByContactPerson: refs.ContactID,
		InvoiceToContactPerson: invoiceTo,
		DeliveryAddress:        refs.AddressID,
		YourRef:                order.ID,
		Remarks:                order.Comments,
		PaymentCondition:       paymentCondition,
		AmountDiscountExclVat:  order.Coupon.InexactFloat64(),
		SalesOrderLines:        lines,
	}
	if order.DigitalBill {
		header.PaymentReference = digitalBillPaymentRef
	}
	return header
}

func (s *Service) ComposeQuotation(quotation orderdomain.Quotation, refs composerdomain.References, lines []exactdomain.SalesOrderLine) exactdomain.Quotation {
	description := quotationDescription + " " + s.clock.Now().Format(quotationDateLayout)
	if quotation.HasFile() {
		description += quotationFileSuffix
	}
	return exactdomain.Quotation{
		OrderAccount:        refs.AccountID,
		OrderAccountContact: refs.ContactID,
		DeliveryAddress:     refs.AddressID,
		Description:         description,
		Remarks:             quotation.Comments,
		QuotationLines:      lines,
	}
}

func (s *Service) today() time.Time {
	now := s.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func amount(d decimal.Decimal) *float64 {
	v := d.Round(2).InexactFloat64()
	return &v
}

var _ composerdomain.Composer = (*Service)(nil)

package service

import (
	"context"

	composerdomain "github.com/smallbiznis/exactsync/internal/composer/domain"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	resolverdomain "github.com/smallbiznis/exactsync/internal/resolver/domain"
	"github.com/smallbiznis/exactsync/internal/salesync/domain"
	"golang.org/x/sync/errgroup"
)

func (s *Service) CreateSalesOrder(ctx context.Context, sess exactdomain.Session, order orderdomain.Order) (result domain.Result, err error) {
	const op = "salesync.create_sales_order"
	ctx, r := s.begin(ctx, domain.WorkflowSalesOrder, sess, order.ID)
	result = domain.Result{Workflow: domain.WorkflowSalesOrder, State: domain.StateAuthPending}
	defer func() { r.finish(ctx, &result, err) }()

	if !sess.Valid() {
		return result, r.fail(domain.StepValidate, erperr.Validation(op, "session needs user and division"))
	}
	if err := order.Validate(); err != nil {
		return result, r.fail(domain.StepValidate, err)
	}
	// Resolved before any write so an unknown payment method leaves the ERP untouched.
	paymentCondition, err := s.composer.PaymentCondition(order.PaymentMethod, order.PaymentNotice)
	if err != nil {
		return result, r.fail(domain.StepValidate, err)
	}

	if err := s.ensureToken(ctx, sess); err != nil {
		return result, r.fail(domain.StepAuth, err)
	}

	customerCountry := order.Company.CountryCode
	tax := composerdomain.TaxContext{
		CustomerCountry: customerCountry,
		DeliveryCountry: order.Delivery.Country(customerCountry),
		VATID:           order.Company.VATID,
	}

	accountOpts := resolverdomain.AccountOptions{DigitalBill: order.DigitalBill, DeliveryCountry: tax.DeliveryCountry}
	var account resolverdomain.Resolution
	err = s.traced(ctx, domain.StepAccount, func(ctx context.Context) error {
		var err error
		account, err = s.syncAccount(ctx, sess, order.Company, accountOpts, true)
		return err
	})
	result.AccountID = account.ID
	if err != nil {
		return result, r.fail(domain.StepAccount, err)
	}
	result.State = domain.StateAccountResolved

	var (
		g                          errgroup.Group
		contact, invoiceContact    resolverdomain.Resolution
		address                    resolverdomain.Resolution
		lines                      []exactdomain.SalesOrderLine
		contactErr, addrErr, lnErr error
	)
	g.Go(func() error {
		contactErr = s.traced(ctx, domain.StepContact, func(ctx context.Context) error {
			var err error
			contact, err = s.syncContact(ctx, sess, account.ID, order.User, true)
			if err != nil || !order.DigitalBill {
				return err
			}
			invoiceContact, err = s.resolver.ResolveInvoiceContact(ctx, sess, account.ID, order.Company, order.User)
			return err
		})
		return contactErr
	})
	g.Go(func() error {
		addrErr = s.traced(ctx, domain.StepAddress, func(ctx context.Context) error {
			var err error
			address, err = s.syncAddress(ctx, sess, account.ID, order.Delivery, customerCountry, true)
			return err
		})
		return addrErr
	})
	g.Go(func() error {
		lnErr = s.traced(ctx, domain.StepLines, func(ctx context.Context) error {
			itemLines, err := s.composer.ComposeOrderLines(ctx, sess, order.Items, tax, composerdomain.LineOptions{DeliveryDates: true})
			if err != nil {
				return err
			}
			costLines, err := s.composer.ComposeCostLines(ctx, sess, order, tax)
			if err != nil {
				return err
			}
			lines = append(itemLines, costLines...)
			return nil
		})
		return lnErr
	})
	// Every branch runs to completion so writes already sent are reported.
	_ = g.Wait()

	if err := s.joinBranches(&result, contact, invoiceContact, address, contactErr, addrErr, lnErr, r); err != nil {
		return result, err
	}

	header := s.composer.ComposeHeader(order, composerdomain.References{
		AccountID:        account.ID,
		ContactID:        contact.ID,
		InvoiceContactID: invoiceContact.ID,
		AddressID:        address.ID,
	}, paymentCondition, lines)

	var created exactdomain.SalesOrderCreated
	if err := s.traced(ctx, domain.StepSubmit, func(ctx context.Context) error {
		return s.client.Post(ctx, sess, exactdomain.ResourceSalesOrders, header, &created)
	}); err != nil {
		return result, r.fail(domain.StepSubmit, err)
	}
	result.State = domain.StateSubmitted
	result.OrderID = created.OrderID
	result.OrderNumber = created.OrderNumber
	return result, nil
}

func (s *Service) CreateQuotation(ctx context.Context, sess exactdomain.Session, quotation orderdomain.Quotation) (result domain.Result, err error) {
	const op = "salesync.create_quotation"
	ctx, r := s.begin(ctx, domain.WorkflowQuotation, sess, quotation.ID)
	result = domain.Result{Workflow: domain.WorkflowQuotation, State: domain.StateAuthPending}
	defer func() { r.finish(ctx, &result, err) }()

	if !sess.Valid() {
		return result, r.fail(domain.StepValidate, erperr.Validation(op, "session needs user and division"))
	}
	if err := quotation.Validate(); err != nil {
		return result, r.fail(domain.StepValidate, err)
	}

	if err := s.ensureToken(ctx, sess); err != nil {
		return result, r.fail(domain.StepAuth, err)
	}

	customerCountry := quotation.Company.CountryCode
	tax := composerdomain.TaxContext{
		CustomerCountry: customerCountry,
		DeliveryCountry: quotation.Delivery.Country(customerCountry),
		VATID:           quotation.Company.VATID,
	}

	// Quotations only ever create prospects and never correct existing records.
	accountOpts := resolverdomain.AccountOptions{Status: s.prospectStatus, DeliveryCountry: tax.DeliveryCountry}
	var account resolverdomain.Resolution
	err = s.traced(ctx, domain.StepAccount, func(ctx context.Context) error {
		var err error
		account, err = s.syncAccount(ctx, sess, quotation.Company, accountOpts, false)
		return err
	})
	result.AccountID = account.ID
	if err != nil {
		return result, r.fail(domain.StepAccount, err)
	}
	result.State = domain.StateAccountResolved

	var (
		g                          errgroup.Group
		contact, address           resolverdomain.Resolution
		lines                      []exactdomain.SalesOrderLine
		contactErr, addrErr, lnErr error
	)
	g.Go(func() error {
		contactErr = s.traced(ctx, domain.StepContact, func(ctx context.Context) error {
			var err error
			contact, err = s.syncContact(ctx, sess, account.ID, quotation.User, false)
			return err
		})
		return contactErr
	})
	g.Go(func() error {
		addrErr = s.traced(ctx, domain.StepAddress, func(ctx context.Context) error {
			var err error
			address, err = s.syncAddress(ctx, sess, account.ID, quotation.Delivery, customerCountry, false)
			return err
		})
		return addrErr
	})
	g.Go(func() error {
		lnErr = s.traced(ctx, domain.StepLines, func(ctx context.Context) error {
			var err error
			lines, err = s.composer.ComposeOrderLines(ctx, sess, quotation.Items, tax, composerdomain.LineOptions{})
			return err
		})
		return lnErr
	})
	_ = g.Wait()

	if err := s.joinBranches(&result, contact, resolverdomain.Resolution{}, address, contactErr, addrErr, lnErr, r); err != nil {
		return result, err
	}

	body := s.composer.ComposeQuotation(quotation, composerdomain.References{
		AccountID: account.ID,
		ContactID: contact.ID,
		AddressID: address.ID,
	}, lines)

	var created exactdomain.QuotationCreated
	if err := s.traced(ctx, domain.StepSubmit, func(ctx context.Context) error {
		return s.client.Post(ctx, sess, exactdomain.ResourceQuotations, body, &created)
	}); err != nil {
		return result, r.fail(domain.StepSubmit, err)
	}
	result.State = domain.StateSubmitted
	result.OrderID = created.QuotationID
	result.OrderNumber = created.QuotationNumber
	return result, nil
}

// joinBranches records what the concurrent steps resolved and returns the
// error of the earliest failing step in chain order, regardless of which
// branch finished first.
func (s *Service) joinBranches(result *domain.Result, contact, invoiceContact, address resolverdomain.Resolution, contactErr, addrErr, linesErr error, r *run) error {
	result.ContactID = contact.ID
	result.InvoiceContactID = invoiceContact.ID
	result.AddressID = address.ID

	if contactErr != nil {
		return r.fail(domain.StepContact, contactErr)
	}
	result.State = domain.StateContactResolved
	if addrErr != nil {
		return r.fail(domain.StepAddress, addrErr)
	}
	result.State = domain.StateAddressResolved
	if linesErr != nil {
		return r.fail(domain.StepLines, linesErr)
	}
	result.State = domain.StateLinesComposed
	return nil
}

func (s *Service) syncAccount(ctx context.Context, sess exactdomain.Session, company orderdomain.Company, opts resolverdomain.AccountOptions, reconcile bool) (resolverdomain.Resolution, error) {
	res, err := s.resolver.ResolveAccount(ctx, sess, company, opts)
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if reconcile && res.Existed() {
		if err := s.resolver.ReconcileAccount(ctx, sess, res.ID, company, opts); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) syncContact(ctx context.Context, sess exactdomain.Session, accountID string, person orderdomain.Person, reconcile bool) (resolverdomain.Resolution, error) {
	res, err := s.resolver.ResolveContact(ctx, sess, accountID, person)
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if reconcile && res.Existed() {
		if err := s.resolver.ReconcileContact(ctx, sess, res.ID, person); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) syncAddress(ctx context.Context, sess exactdomain.Session, accountID string, delivery orderdomain.Delivery, fallbackCountry string, reconcile bool) (resolverdomain.Resolution, error) {
	res, err := s.resolver.ResolveAddress(ctx, sess, accountID, delivery, fallbackCountry)
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if reconcile && res.Existed() {
		if err := s.resolver.ReconcileAddress(ctx, sess, res.ID, delivery, fallbackCountry); err != nil {
			return res, err
		}
	}
	return res, nil
}

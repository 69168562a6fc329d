package service

import (
	"context"

	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	resolverdomain "github.com/smallbiznis/exactsync/internal/resolver/domain"
	"go.uber.org/zap"
)

const defaultAccountStatus = "C"

var accountComparatorFields = []string{"Name", "AddressLine1", "Postcode", "City", "AddressLine2", "InvoicingMethod"}

func (s *Service) ResolveAccount(ctx context.Context, sess exactdomain.Session, company orderdomain.Company, opts resolverdomain.AccountOptions) (resolverdomain.Resolution, error) {
	const op = "resolver.resolve_account"
	if company.ErpID != "" {
		return resolverdomain.Resolution{ID: company.ErpID, Source: resolverdomain.SourceKnown}, nil
	}

	code := resolverdomain.AccountCode(company.ID)
	if code == "" {
		return resolverdomain.Resolution{}, erperr.Validation(op, "company id is required")
	}
	id, found, err := s.findID(ctx, sess, exactdomain.ResourceAccounts, exactdomain.StartsWithTrim("Code", code))
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if found {
		return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceFound}, nil
	}

	payload, err := s.accountPayload(ctx, sess, op, company, opts)
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	payload.Code = code
	id, err = s.create(ctx, sess, op, "account", exactdomain.ResourceAccounts, payload)
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	s.log.Info("account created", zap.String("account_id", id), zap.String("code", code))
	return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceCreated}, nil
}

// ReconcileAccount updates the account when name or billing address drifted,
// and separately corrects the invoicing method.
func (s *Service) ReconcileAccount(ctx context.Context, sess exactdomain.Session, accountID string, company orderdomain.Company, opts resolverdomain.AccountOptions) error {
	const op = "resolver.reconcile_account"

	current, err := fetchOne[exactdomain.Account](ctx, s, sess, op, "account", exactdomain.ResourceAccounts, accountID, accountComparatorFields)
	if err != nil {
		return err
	}

	wanted := []string{
		company.Name,
		resolverdomain.AddressLine(company.Street, company.HouseNumber),
		company.ZipCode,
		company.City,
		company.Addition,
	}
	actual := []string{current.Name, current.AddressLine1, current.Postcode, current.City, current.AddressLine2}

	if resolverdomain.Drifted(wanted, actual) {
		payload, err := s.accountPayload(ctx, sess, op, company, opts)
		if err != nil {
			return err
		}
		if err := s.update(ctx, sess, "account", exactdomain.ResourceAccounts, accountID, exactdomain.AccountUpdate{
			Name:           payload.Name,
			AddressLine1:   payload.AddressLine1,
			AddressLine2:   payload.AddressLine2,
			AddressLine3:   payload.AddressLine3,
			Postcode:       payload.Postcode,
			City:           payload.City,
			Country:        payload.Country,
			Email:          payload.Email,
			Phone:          payload.Phone,
			Status:         payload.Status,
			VATNumber:      payload.VATNumber,
			SalesVATCode:   payload.SalesVATCode,
			GLAccountSales: payload.GLAccountSales,
		}); err != nil {
			return err
		}
		s.log.Info("account drift corrected", zap.String("account_id", accountID))
	}

	method := invoicingMethod(opts.DigitalBill)
	if current.InvoicingMethod != method {
		if err := s.update(ctx, sess, "account", exactdomain.ResourceAccounts, accountID, exactdomain.InvoicingUpdate{InvoicingMethod: method}); err != nil {
			return err
		}
		s.log.Info("account invoicing method corrected",
			zap.String("account_id", accountID),
			zap.Int("invoicing_method", method),
		)
	}
	return nil
}

func (s *Service) accountPayload(ctx context.Context, sess exactdomain.Session, op string, company orderdomain.Company, opts resolverdomain.AccountOptions) (exactdomain.Account, error) {
	country := s.country(company.CountryCode, "")
	decision := s.tax.ForSale(country, s.country(opts.DeliveryCountry, country), company.VATID)

	glID, found, err := s.catalog.GLAccountID(ctx, sess, decision.GLAccountCode)
	if err != nil {
		return exactdomain.Account{}, err
	}
	if !found {
		return exactdomain.Account{}, erperr.EntityNotFound(op, "gl account", decision.GLAccountCode)
	}

	status := opts.Status
	if status == "" {
		status = company.CustomerType
	}
	if status == "" {
		status = defaultAccountStatus
	}

	payload := exactdomain.Account{
		Name:            company.Name,
		AddressLine1:    resolverdomain.AddressLine(company.Street, company.HouseNumber),
		AddressLine2:    company.Addition,
		AddressLine3:    company.Name2,
		Postcode:        company.ZipCode,
		City:            company.City,
		Country:         country,
		Email:           company.Email,
		Phone:           company.Phone,
		Status:          status,
		VATNumber:       resolverdomain.VATNumber(company.VATID, country, s.cfg.SecondHomeCountry),
		SalesVATCode:    decision.VATCode,
		GLAccountSales:  glID,
		InvoicingMethod: invoicingMethod(opts.DigitalBill),
	}

	if priceList, found, err := s.catalog.PriceListID(ctx, sess, s.cfg.PriceListName); err != nil {
		return exactdomain.Account{}, err
	} else if found {
		payload.PriceList = priceList
	} else {
		s.log.Warn("price list not found, account created without it", zap.String("price_list", s.cfg.PriceListName))
	}

	if company.Classification != "" {
		classification, found, err := s.catalog.ClassificationID(ctx, sess, company.Classification)
		if err != nil {
			return exactdomain.Account{}, err
		}
		if found {
			payload.Classification1 = classification
		}
	}
	return payload, nil
}

func invoicingMethod(digital bool) int {
	if digital {
		return exactdomain.InvoicingMethodDigital
	}
	return exactdomain.InvoicingMethodPaper
}

package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	resolverdomain "github.com/smallbiznis/exactsync/internal/resolver/domain"
	"go.uber.org/zap"
)

var addressComparatorFields = []string{"AddressLine1", "AddressLine2", "AddressLine3", "Postcode", "City"}

func (s *Service) ResolveAddress(ctx context.Context, sess exactdomain.Session, accountID string, delivery orderdomain.Delivery, fallbackCountry string) (resolverdomain.Resolution, error) {
	const op = "resolver.resolve_address"
	if delivery.ErpID != "" {
		return resolverdomain.Resolution{ID: delivery.ErpID, Source: resolverdomain.SourceKnown}, nil
	}
	if strings.TrimSpace(accountID) == "" {
		return resolverdomain.Resolution{}, erperr.Validation(op, "account id is required")
	}

	// an address without a name is stored with an empty third line
	nameClause := "AddressLine3 eq null"
	if name := strings.TrimSpace(delivery.Name); name != "" {
		nameClause = exactdomain.Eq("AddressLine3", exactdomain.Literal(name))
	}
	id, found, err := s.findID(ctx, sess, exactdomain.ResourceAddresses, exactdomain.And(
		exactdomain.Eq("Account", exactdomain.GUID(accountID)),
		exactdomain.StartsWithTrim("AddressLine1", strings.TrimSpace(delivery.Street)),
		exactdomain.Eq("Type", "4"),
		nameClause,
		exactdomain.Eq("Postcode", exactdomain.Literal(strings.TrimSpace(delivery.ZipCode))),
	))
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if found {
		return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceFound}, nil
	}

	payload := s.addressPayload(delivery, fallbackCountry)
	id, err = s.create(ctx, sess, op, "address", exactdomain.ResourceAddresses, exactdomain.Address{
		Account:      accountID,
		AddressLine1: payload.AddressLine1,
		AddressLine2: payload.AddressLine2,
		AddressLine3: payload.AddressLine3,
		Postcode:     payload.Postcode,
		City:         payload.City,
		Country:      payload.Country,
		Type:         payload.Type,
	})
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	s.log.Info("delivery address created", zap.String("address_id", id), zap.String("account_id", accountID))
	return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceCreated}, nil
}

func (s *Service) ReconcileAddress(ctx context.Context, sess exactdomain.Session, addressID string, delivery orderdomain.Delivery, fallbackCountry string) error {
	const op = "resolver.reconcile_address"

	current, err := fetchOne[exactdomain.Address](ctx, s, sess, op, "address", exactdomain.ResourceAddresses, addressID, addressComparatorFields)
	if err != nil {
		return err
	}

	payload := s.addressPayload(delivery, fallbackCountry)
	wanted := []string{payload.AddressLine1, payload.AddressLine2, payload.AddressLine3, payload.Postcode, payload.City}
	actual := []string{current.AddressLine1, current.AddressLine2, current.AddressLine3, current.Postcode, current.City}
	if !resolverdomain.Drifted(wanted, actual) {
		return nil
	}

	if err := s.update(ctx, sess, "address", exactdomain.ResourceAddresses, addressID, payload); err != nil {
		return err
	}
	s.log.Info("delivery address drift corrected", zap.String("address_id", addressID))
	return nil
}

func (s *Service) addressPayload(delivery orderdomain.Delivery, fallbackCountry string) exactdomain.AddressUpdate {
	return exactdomain.AddressUpdate{
		AddressLine1: resolverdomain.AddressLine(delivery.Street, delivery.HouseNumber),
		AddressLine2: strings.TrimSpace(delivery.Additional),
		AddressLine3: strings.TrimSpace(delivery.Name),
		Postcode:     strings.TrimSpace(delivery.ZipCode),
		City:         strings.TrimSpace(delivery.City),
		Country:      s.country(delivery.CountryCode, fallbackCountry),
		Type:         exactdomain.AddressTypeDelivery,
	}
}

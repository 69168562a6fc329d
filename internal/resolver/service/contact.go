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

var (
	contactComparatorFields = []string{"FirstName", "LastName", "Email", "Phone"}
	invoiceContactFields    = []string{"Email"}
)

func (s *Service) ResolveContact(ctx context.Context, sess exactdomain.Session, accountID string, person orderdomain.Person) (resolverdomain.Resolution, error) {
	if person.ErpID != "" {
		return resolverdomain.Resolution{ID: person.ErpID, Source: resolverdomain.SourceKnown}, nil
	}
	return s.findOrCreateContact(ctx, sess, "resolver.resolve_contact", accountID, person)
}

func (s *Service) ResolveInvoiceContact(ctx context.Context, sess exactdomain.Session, accountID string, company orderdomain.Company, user orderdomain.Person) (resolverdomain.Resolution, error) {
	const op = "resolver.resolve_invoice_contact"
	email := company.Email
	if strings.TrimSpace(email) == "" {
		email = user.Email
	}
	res, err := s.findOrCreateContact(ctx, sess, op, accountID, orderdomain.Person{
		FirstName: resolverdomain.InvoiceContactFirstName,
		LastName:  resolverdomain.InvoiceContactLastName,
		Email:     email,
	})
	if err != nil || res.Source != resolverdomain.SourceFound {
		return res, err
	}

	// The template name never changes, so the email is the only field to follow.
	current, err := fetchOne[exactdomain.Contact](ctx, s, sess, op, "contact", exactdomain.ResourceContacts, res.ID, invoiceContactFields)
	if err != nil {
		return res, err
	}
	if !resolverdomain.Drifted([]string{email}, []string{current.Email}) {
		return res, nil
	}
	if err := s.update(ctx, sess, "contact", exactdomain.ResourceContacts, res.ID, exactdomain.ContactEmailUpdate{Email: email}); err != nil {
		return res, err
	}
	s.log.Info("invoice contact email corrected", zap.String("contact_id", res.ID))
	return res, nil
}

func (s *Service) findOrCreateContact(ctx context.Context, sess exactdomain.Session, op, accountID string, person orderdomain.Person) (resolverdomain.Resolution, error) {
	if strings.TrimSpace(accountID) == "" {
		return resolverdomain.Resolution{}, erperr.Validation(op, "account id is required")
	}

	id, found, err := s.findID(ctx, sess, exactdomain.ResourceContacts, exactdomain.And(
		exactdomain.Eq("Account", exactdomain.GUID(accountID)),
		exactdomain.Eq("LastName", exactdomain.Literal(person.LastName)),
		exactdomain.Eq("FirstName", exactdomain.Literal(person.FirstName)),
	))
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	if found {
		return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceFound}, nil
	}

	id, err = s.create(ctx, sess, op, "contact", exactdomain.ResourceContacts, exactdomain.Contact{
		Account:             accountID,
		FirstName:           person.FirstName,
		LastName:            person.LastName,
		Email:               person.Email,
		Phone:               person.Phone,
		Title:               strings.ToUpper(strings.TrimSpace(person.Salutation)),
		JobTitleDescription: person.Position,
	})
	if err != nil {
		return resolverdomain.Resolution{}, err
	}
	s.log.Info("contact created", zap.String("contact_id", id), zap.String("account_id", accountID))
	return resolverdomain.Resolution{ID: id, Source: resolverdomain.SourceCreated}, nil
}

func (s *Service) ReconcileContact(ctx context.Context, sess exactdomain.Session, contactID string, person orderdomain.Person) error {
	const op = "resolver.reconcile_contact"

	current, err := fetchOne[exactdomain.Contact](ctx, s, sess, op, "contact", exactdomain.ResourceContacts, contactID, contactComparatorFields)
	if err != nil {
		return err
	}

	wanted := []string{person.FirstName, person.LastName, person.Email, person.Phone}
	actual := []string{current.FirstName, current.LastName, current.Email, current.Phone}
	if !resolverdomain.Drifted(wanted, actual) {
		return nil
	}

	if err := s.update(ctx, sess, "contact", exactdomain.ResourceContacts, contactID, exactdomain.ContactUpdate{
		FirstName:           person.FirstName,
		LastName:            person.LastName,
		Email:               person.Email,
		Phone:               person.Phone,
		Title:               strings.ToUpper(strings.TrimSpace(person.Salutation)),
		JobTitleDescription: person.Position,
	}); err != nil {
		return err
	}
	s.log.Info("contact drift corrected", zap.String("contact_id", contactID))
	return nil
}

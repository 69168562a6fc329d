package domain

import (
	"context"

	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
)

// Resolver finds or creates ERP records by natural key and corrects drift.
// Resolve* trusts a known ERP id without a lookup. Reconcile* fails with
// erperr.ErrEntityNotFound when the id does not exist in the ERP.
type Resolver interface {
	ResolveAccount(ctx context.Context, sess exactdomain.Session, company orderdomain.Company, opts AccountOptions) (Resolution, error)
	ReconcileAccount(ctx context.Context, sess exactdomain.Session, accountID string, company orderdomain.Company, opts AccountOptions) error

	ResolveContact(ctx context.Context, sess exactdomain.Session, accountID string, person orderdomain.Person) (Resolution, error)
	ReconcileContact(ctx context.Context, sess exactdomain.Session, contactID string, person orderdomain.Person) error
	// ResolveInvoiceContact finds or creates the synthetic e-invoice contact.
	ResolveInvoiceContact(ctx context.Context, sess exactdomain.Session, accountID string, company orderdomain.Company, user orderdomain.Person) (Resolution, error)

	ResolveAddress(ctx context.Context, sess exactdomain.Session, accountID string, delivery orderdomain.Delivery, fallbackCountry string) (Resolution, error)
	ReconcileAddress(ctx context.Context, sess exactdomain.Session, addressID string, delivery orderdomain.Delivery, fallbackCountry string) error
}

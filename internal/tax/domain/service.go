package domain

// Resolver evaluates the country matrix.
type Resolver interface {
	// ForSale decides the treatment of order lines, cost lines and the
	// sales defaults stored on the account.
	ForSale(customerCountry, deliveryCountry, vatID string) Decision
}

package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/exactsync/internal/erperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks an order before any ERP call is made.
func (o Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return validationError("order.validate", err)
	}
	if err := validateItems("order.validate", o.Items); err != nil {
		return err
	}
	if o.DeliveryCosts.IsNegative() || o.ForwardingCosts.IsNegative() || o.Coupon.IsNegative() {
		return erperr.Validation("order.validate", "costs and coupon cannot be negative")
	}
	return nil
}

func (q Quotation) Validate() error {
	if err := validate.Struct(q); err != nil {
		return validationError("quotation.validate", err)
	}
	return validateItems("quotation.validate", q.Items)
}

func validateItems(op string, items []LineItem) error {
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return erperr.Validation(op, fmt.Sprintf("items[%d].quantity must be positive", i))
		}
		if item.Price != nil && item.Price.IsNegative() {
			return erperr.Validation(op, fmt.Sprintf("items[%d].price cannot be negative", i))
		}
	}
	return nil
}

func validationError(op string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return erperr.Wrap(erperr.KindValidation, op, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return erperr.Validation(op, strings.Join(fields, "; "))
}

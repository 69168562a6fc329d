package service

import (
	"strings"

	"github.com/smallbiznis/exactsync/internal/config"
	taxdomain "github.com/smallbiznis/exactsync/internal/tax/domain"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Rules *config.RulesHolder
}

type resolver struct {
	home       string
	secondHome string
	rules      *config.RulesHolder
}

func NewResolver(p Params) taxdomain.Resolver {
	return &resolver{
		home:       normalizeCountry(p.Cfg.Exact.HomeCountry),
		secondHome: normalizeCountry(p.Cfg.Exact.SecondHomeCountry),
		rules:      p.Rules,
	}
}

// ForSale applies the rules in order, the first match wins:
//  1. foreign customer, delivery into the home country: domestic
//  2. customer and delivery in the second home market: second home
//  3. delivery abroad without a VAT id on file: domestic
//  4. home customer: domestic
//  5. intra-union otherwise
func (r *resolver) ForSale(customerCountry, deliveryCountry, vatID string) taxdomain.Decision {
	customer := normalizeCountry(customerCountry)
	delivery := normalizeCountry(deliveryCountry)
	if delivery == "" {
		delivery = customer
	}
	hasVATID := strings.TrimSpace(vatID) != ""

	switch {
	case customer != r.home && delivery == r.home:
		return r.decision(taxdomain.TreatmentDomestic)
	case r.secondHome != "" && customer == r.secondHome && delivery == r.secondHome:
		return r.decision(taxdomain.TreatmentSecondHome)
	case delivery != r.home && !hasVATID:
		return r.decision(taxdomain.TreatmentDomestic)
	case customer == r.home:
		return r.decision(taxdomain.TreatmentDomestic)
	default:
		return r.decision(taxdomain.TreatmentIntraUnion)
	}
}

func (r *resolver) decision(t taxdomain.Treatment) taxdomain.Decision {
	vat := r.rules.Get().VAT
	var rule config.VATTreatment
	switch t {
	case taxdomain.TreatmentSecondHome:
		rule = vat.SecondHome
	case taxdomain.TreatmentIntraUnion:
		rule = vat.IntraUnion
	default:
		rule = vat.Domestic
	}
	return taxdomain.Decision{Treatment: t, VATCode: rule.VATCode, GLAccountCode: rule.GLAccountCode}
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

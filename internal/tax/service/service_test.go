package service

import (
	"testing"

	"github.com/smallbiznis/exactsync/internal/config"
	taxdomain "github.com/smallbiznis/exactsync/internal/tax/domain"
	"github.com/stretchr/testify/assert"
)

func newTestResolver() taxdomain.Resolver {
	return NewResolver(Params{
		Cfg:   config.Config{Exact: config.ExactConfig{HomeCountry: "DE", SecondHomeCountry: "CH"}},
		Rules: config.NewStaticRulesHolder(config.DefaultRules()),
	})
}

func TestForSaleMatrix(t *testing.T) {
	r := newTestResolver()

	cases := []struct {
		name      string
		customer  string
		delivery  string
		vatID     string
		treatment taxdomain.Treatment
		vatCode   string
		glCode    string
	}{
		{"foreign customer delivered home", "FR", "DE", "FR123", taxdomain.TreatmentDomestic, "3", "8400"},
		{"swiss customer delivered in switzerland", "CH", "CH", "", taxdomain.TreatmentSecondHome, "000", "8338"},
		{"export without vat id", "FR", "FR", "", taxdomain.TreatmentDomestic, "3", "8400"},
		{"home customer delivered home", "DE", "DE", "", taxdomain.TreatmentDomestic, "3", "8400"},
		{"home customer delivered abroad with vat id", "DE", "AT", "DE999", taxdomain.TreatmentDomestic, "3", "8400"},
		{"eu customer with vat id", "FR", "FR", "FR123", taxdomain.TreatmentIntraUnion, "11", "8125"},
		{"lowercase countries", "fr", " de ", "", taxdomain.TreatmentDomestic, "3", "8400"},
		{"missing delivery uses customer", "AT", "", "ATU1", taxdomain.TreatmentIntraUnion, "11", "8125"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.ForSale(tc.customer, tc.delivery, tc.vatID)
			assert.Equal(t, tc.treatment, got.Treatment)
			assert.Equal(t, tc.vatCode, got.VATCode)
			assert.Equal(t, tc.glCode, got.GLAccountCode)
		})
	}
}

func TestForSaleFollowsReloadedRules(t *testing.T) {
	rules := config.DefaultRules()
	rules.VAT.SecondHome.VATCode = "00"
	r := NewResolver(Params{
		Cfg:   config.Config{Exact: config.ExactConfig{HomeCountry: "DE", SecondHomeCountry: "CH"}},
		Rules: config.NewStaticRulesHolder(rules),
	})

	assert.Equal(t, "00", r.ForSale("CH", "CH", "").VATCode)
}

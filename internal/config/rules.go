package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Rules holds the request shaping tables that changed often enough in the
// past to live outside the binary.
type Rules struct {
	PaymentConditions PaymentConditionRules `mapstructure:"paymentConditions"`
	VAT               VATRules              `mapstructure:"vat"`
	Costs             CostRules             `mapstructure:"costs"`
}

// PaymentConditionRules maps shop payment labels to ERP payment condition codes.
// Overrides keyed by method and notice win over the method-only table.
type PaymentConditionRules struct {
	Overrides []PaymentConditionOverride `mapstructure:"overrides"`
	Methods   []PaymentConditionMethod   `mapstructure:"methods"`
}

type PaymentConditionOverride struct {
	Method string `mapstructure:"method"`
	Notice string `mapstructure:"notice"`
	Code   string `mapstructure:"code"`
}

type PaymentConditionMethod struct {
	Method string `mapstructure:"method"`
	Code   string `mapstructure:"code"`
}

// VATRules holds the (VAT code, GL sales account code) pair of every tax treatment.
type VATRules struct {
	Domestic   VATTreatment `mapstructure:"domestic"`
	SecondHome VATTreatment `mapstructure:"secondHome"`
	IntraUnion VATTreatment `mapstructure:"intraUnion"`
}

type VATTreatment struct {
	VATCode       string `mapstructure:"vatCode"`
	GLAccountCode string `mapstructure:"glAccountCode"`
}

// CostRules names the ERP items used for cost lines; the delivery country is appended.
type CostRules struct {
	DeliveryItemPrefix   string `mapstructure:"deliveryItemPrefix"`
	ForwardingItemPrefix string `mapstructure:"forwardingItemPrefix"`
}

func DefaultRules() Rules {
	return Rules{
		PaymentConditions: PaymentConditionRules{
			Overrides: []PaymentConditionOverride{
				{Method: "Vorkasse", Notice: "Bezahlt", Code: "VZ"},
			},
			Methods: []PaymentConditionMethod{
				{Method: "Rechnung", Code: "01"},
				{Method: "Paypal", Code: "PP"},
				{Method: "Vorkasse", Code: "V2"},
				{Method: "Sofortüberweisung", Code: "SO"},
			},
		},
		VAT: VATRules{
			Domestic:   VATTreatment{VATCode: "3", GLAccountCode: "8400"},
			SecondHome: VATTreatment{VATCode: "000", GLAccountCode: "8338"},
			IntraUnion: VATTreatment{VATCode: "11", GLAccountCode: "8125"},
		},
		Costs: CostRules{
			DeliveryItemPrefix:   "Versand",
			ForwardingItemPrefix: "Spedition",
		},
	}
}

type RulesHolder struct {
	current atomic.Value // holds Rules
}

// NewStaticRulesHolder returns a holder that never reloads.
func NewStaticRulesHolder(rules Rules) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(rules)
	return holder
}

// NewRulesHolder loads the rules file named by EXACT_RULES_FILE and watches
// it for changes. Without a file the built-in tables are used.
func NewRulesHolder(cfg Config, log *zap.Logger) (*RulesHolder, error) {
	defaults := DefaultRules()
	path := strings.TrimSpace(cfg.Exact.RulesFile)
	if path == "" {
		return NewStaticRulesHolder(defaults), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	rules, err := decodeRules(v, defaults)
	if err != nil {
		return nil, err
	}

	holder := NewStaticRulesHolder(rules)
	log = log.Named("config.rules")

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRules(v, defaults)
		if err != nil {
			log.Warn("rules reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("rules reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RulesHolder) Get() Rules {
	return h.current.Load().(Rules)
}

func decodeRules(v *viper.Viper, defaults Rules) (Rules, error) {
	var rules Rules
	if err := v.UnmarshalKey("rules", &rules); err != nil {
		return Rules{}, err
	}
	rules = withDefaults(rules, defaults)
	if err := validateRules(rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// withDefaults fills every section the file leaves out.
func withDefaults(rules, defaults Rules) Rules {
	if len(rules.PaymentConditions.Overrides) == 0 && len(rules.PaymentConditions.Methods) == 0 {
		rules.PaymentConditions = defaults.PaymentConditions
	}
	if rules.VAT == (VATRules{}) {
		rules.VAT = defaults.VAT
	}
	if rules.Costs.DeliveryItemPrefix == "" {
		rules.Costs.DeliveryItemPrefix = defaults.Costs.DeliveryItemPrefix
	}
	if rules.Costs.ForwardingItemPrefix == "" {
		rules.Costs.ForwardingItemPrefix = defaults.Costs.ForwardingItemPrefix
	}
	return rules
}

func validateRules(rules Rules) error {
	if len(rules.PaymentConditions.Methods) == 0 {
		return errors.New("rules.paymentConditions.methods cannot be empty")
	}
	for _, t := range []VATTreatment{rules.VAT.Domestic, rules.VAT.SecondHome, rules.VAT.IntraUnion} {
		if strings.TrimSpace(t.VATCode) == "" || strings.TrimSpace(t.GLAccountCode) == "" {
			return errors.New("rules.vat treatments need vatCode and glAccountCode")
		}
	}
	if strings.TrimSpace(rules.Costs.DeliveryItemPrefix) == "" {
		return errors.New("rules.costs.deliveryItemPrefix cannot be empty")
	}
	return nil
}

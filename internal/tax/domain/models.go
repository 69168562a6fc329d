package domain

// Treatment names the tax regime of a sale. Codes are provider constants and
// come from the rules table.
type Treatment string

const (
	TreatmentDomestic   Treatment = "domestic"
	TreatmentSecondHome Treatment = "second_home"
	TreatmentIntraUnion Treatment = "intra_union"
)

// Decision is the resolved (VAT code, GL sales account code) pair.
type Decision struct {
	Treatment     Treatment
	VATCode       string
	GLAccountCode string
}

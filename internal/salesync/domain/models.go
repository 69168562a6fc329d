package domain

// State is the furthest step a run reached. Steps run in declaration order
// and a failing step leaves the state at the last completed one.
type State string

const (
	StateAuthPending     State = "auth_pending"
	StateAccountResolved State = "account_resolved"
	StateContactResolved State = "contact_resolved"
	StateAddressResolved State = "address_resolved"
	StateLinesComposed   State = "lines_composed"
	StateSubmitted       State = "submitted"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

type Workflow string

const (
	WorkflowSalesOrder       Workflow = "sales_order"
	WorkflowQuotation        Workflow = "quotation"
	WorkflowUpdateSalesOrder Workflow = "update_sales_order"
)

// Step names the operation a run failed in.
const (
	StepValidate = "validate"
	StepAuth     = "auth"
	StepAccount  = "account"
	StepContact  = "contact"
	StepAddress  = "address"
	StepLines    = "lines"
	StepSubmit   = "submit"
)

// Result reports what a run achieved. Ids resolved before a failure are kept
// so callers can store them on the domain entities.
type Result struct {
	Workflow Workflow `json:"workflow"`
	// State is the last step reached.
	State State `json:"state"`
	// Outcome is StateSucceeded or StateFailed.
	Outcome    State  `json:"outcome"`
	FailedStep string `json:"failed_step,omitempty"`

	OrderID          string `json:"order_id,omitempty"`
	OrderNumber      int64  `json:"order_number,omitempty"`
	AccountID        string `json:"account_id,omitempty"`
	ContactID        string `json:"contact_id,omitempty"`
	InvoiceContactID string `json:"invoice_contact_id,omitempty"`
	AddressID        string `json:"address_id,omitempty"`
}

func (r Result) Succeeded() bool {
	return r.Outcome == StateSucceeded
}

// Refs returns the resolved ids keyed by name, omitting empty ones.
func (r Result) Refs() map[string]any {
	refs := map[string]any{}
	for key, value := range map[string]string{
		"order_id":           r.OrderID,
		"account_id":         r.AccountID,
		"contact_id":         r.ContactID,
		"invoice_contact_id": r.InvoiceContactID,
		"address_id":         r.AddressID,
	} {
		if value != "" {
			refs[key] = value
		}
	}
	return refs
}

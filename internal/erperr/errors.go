// Package erperr defines the error taxonomy shared by the token manager,
// the ERP client and the synchronization services.
package erperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an ERP synchronization failure.
type Kind string

const (
	KindAuthRequired         Kind = "auth_required"
	KindTokenRefreshFailed   Kind = "token_refresh_failed"
	KindInvalidTokenResponse Kind = "invalid_token_response"
	KindEntityNotFound       Kind = "entity_not_found"
	KindItemNotFound         Kind = "item_not_found"
	KindTransport            Kind = "transport_error"
	KindValidation           Kind = "validation_error"
)

var (
	ErrAuthRequired         = errors.New("auth_required")
	ErrTokenRefreshFailed   = errors.New("token_refresh_failed")
	ErrInvalidTokenResponse = errors.New("invalid_token_response")
	ErrEntityNotFound       = errors.New("entity_not_found")
	ErrItemNotFound         = errors.New("item_not_found")
	ErrTransport            = errors.New("transport_error")
	ErrValidation           = errors.New("validation_error")
)

var sentinels = map[Kind]error{
	KindAuthRequired:         ErrAuthRequired,
	KindTokenRefreshFailed:   ErrTokenRefreshFailed,
	KindInvalidTokenResponse: ErrInvalidTokenResponse,
	KindEntityNotFound:       ErrEntityNotFound,
	KindItemNotFound:         ErrItemNotFound,
	KindTransport:            ErrTransport,
	KindValidation:           ErrValidation,
}

// Error is the typed failure returned across the sync engine.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status is the HTTP status of the remote response, 0 when no response was received.
	Status int
	// SKUs lists unresolved item codes for KindItemNotFound.
	SKUs []string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind. A failed refresh also reports
// as ErrAuthRequired because the caller has to authorize again either way.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if sentinel, ok := sentinels[e.Kind]; ok && target == sentinel {
		return true
	}
	return e.Kind == KindTokenRefreshFailed && target == ErrAuthRequired
}

// New builds a typed error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf builds a typed error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// AuthRequired reports that no usable credentials exist for the user.
func AuthRequired(op, userID string) *Error {
	return Newf(KindAuthRequired, op, "no valid token for user %q", userID)
}

// EntityNotFound reports a reconciliation target missing in the ERP.
func EntityNotFound(op, entity, id string) *Error {
	return Newf(KindEntityNotFound, op, "%s %s not found", entity, id)
}

// ItemNotFound reports the SKUs that have no ERP item.
func ItemNotFound(op string, skus []string) *Error {
	e := Newf(KindItemNotFound, op, "unknown items: %s", strings.Join(skus, ", "))
	e.SKUs = append([]string(nil), skus...)
	return e
}

// Validation reports a request that cannot be shaped into an ERP write.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind, true
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return "", false
}

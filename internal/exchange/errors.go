package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure an adapter can report. A kind is itself
// an error so callers can write errors.Is(err, exchange.InsufficientFunds).
type ErrorKind int

const (
	ExchangeError ErrorKind = iota
	AuthenticationError
	PermissionDenied
	AccountSuspended
	ArgumentsRequired
	BadRequest
	BadSymbol
	InsufficientFunds
	InvalidOrder
	OrderNotFound
	CancelPending
	NotSupported
	OperationFailed
	NetworkError
	RateLimitExceeded
	ExchangeNotAvailable
	OnMaintenance
	InvalidNonce
	RequestTimeout
	InvalidAddress
)

var kindNames = map[ErrorKind]string{
	ExchangeError:        "ExchangeError",
	AuthenticationError:  "AuthenticationError",
	PermissionDenied:     "PermissionDenied",
	AccountSuspended:     "AccountSuspended",
	ArgumentsRequired:    "ArgumentsRequired",
	BadRequest:           "BadRequest",
	BadSymbol:            "BadSymbol",
	InsufficientFunds:    "InsufficientFunds",
	InvalidOrder:         "InvalidOrder",
	OrderNotFound:        "OrderNotFound",
	CancelPending:        "CancelPending",
	NotSupported:         "NotSupported",
	OperationFailed:      "OperationFailed",
	NetworkError:         "NetworkError",
	RateLimitExceeded:    "RateLimitExceeded",
	ExchangeNotAvailable: "ExchangeNotAvailable",
	OnMaintenance:        "OnMaintenance",
	InvalidNonce:         "InvalidNonce",
	RequestTimeout:       "RequestTimeout",
	InvalidAddress:       "InvalidAddress",
}

// kindParents encodes the hierarchy: BadSymbol is a BadRequest, OrderNotFound
// is an InvalidOrder, and so on. ExchangeError and OperationFailed are roots.
var kindParents = map[ErrorKind]ErrorKind{
	AuthenticationError:  ExchangeError,
	PermissionDenied:     AuthenticationError,
	AccountSuspended:     AuthenticationError,
	ArgumentsRequired:    ExchangeError,
	BadRequest:           ExchangeError,
	BadSymbol:            BadRequest,
	InsufficientFunds:    ExchangeError,
	InvalidOrder:         ExchangeError,
	OrderNotFound:        InvalidOrder,
	CancelPending:        InvalidOrder,
	NotSupported:         ExchangeError,
	NetworkError:         OperationFailed,
	RateLimitExceeded:    NetworkError,
	ExchangeNotAvailable: NetworkError,
	OnMaintenance:        ExchangeNotAvailable,
	InvalidNonce:         NetworkError,
	RequestTimeout:       NetworkError,
	InvalidAddress:       ExchangeError,
}

// String returns the kind name
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error implements the error interface so kinds work as errors.Is targets
func (k ErrorKind) Error() string {
	return k.String()
}

// Parent returns the broader kind, or false for a root kind
func (k ErrorKind) Parent() (ErrorKind, bool) {
	p, ok := kindParents[k]
	return p, ok
}

// IsA reports whether k equals target or descends from it
func (k ErrorKind) IsA(target ErrorKind) bool {
	for cur, ok := k, true; ok; cur, ok = cur.Parent() {
		if cur == target {
			return true
		}
	}
	return false
}

// ErrorCategory groups kinds by how a caller should react
type ErrorCategory string

const (
	CategoryArgument  ErrorCategory = "ARGUMENT"
	CategoryAuth      ErrorCategory = "AUTH"
	CategoryBusiness  ErrorCategory = "BUSINESS"
	CategoryTransient ErrorCategory = "TRANSIENT"
)

// Category returns the caller-facing class of the kind
func (k ErrorKind) Category() ErrorCategory {
	switch {
	case k == BadRequest, k == BadSymbol, k == ArgumentsRequired, k == NotSupported:
		return CategoryArgument
	case k.IsA(AuthenticationError):
		return CategoryAuth
	case k.IsA(OperationFailed):
		return CategoryTransient
	default:
		return CategoryBusiness
	}
}

// Error is the single error type returned by exchange operations
type Error struct {
	Kind       ErrorKind
	Exchange   string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Exchange + " " + e.Kind.String())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind targets along the kind hierarchy
func (e *Error) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return e.Kind.IsA(k)
	}
	return false
}

// NewError creates an error whose message is prefixed with the exchange id
func NewError(kind ErrorKind, exchangeID, message string) *Error {
	return &Error{
		Kind:     kind,
		Exchange: exchangeID,
		Message:  exchangeID + " " + message,
	}
}

// Errorf is NewError with formatting
func Errorf(kind ErrorKind, exchangeID, format string, args ...interface{}) *Error {
	return NewError(kind, exchangeID, fmt.Sprintf(format, args...))
}

// Feedback builds the "<exchangeId> <rawBody>" message carried by server errors
func Feedback(exchangeID, body string) string {
	return exchangeID + " " + body
}

// KindOf returns the kind of err, or false when err is not an exchange error
func KindOf(err error) (ErrorKind, bool) {
	var exErr *Error
	if errors.As(err, &exErr) {
		return exErr.Kind, true
	}
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}

// IsRetryableError determines if an error is worth retrying
func IsRetryableError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Category() == CategoryTransient
}

// HTTPStatusOf returns the HTTP status recorded on err, or 0
func HTTPStatusOf(err error) int {
	var exErr *Error
	if errors.As(err, &exErr) {
		return exErr.HTTPStatus
	}
	return 0
}

// ErrorRule maps an exchange code or message to a kind
type ErrorRule struct {
	Match string
	Kind  ErrorKind
}

// ErrorRules is the ordered exception table of one exchange. Exact rules are
// compared for equality, broad rules by substring, and the first hit wins.
type ErrorRules struct {
	Exact []ErrorRule
	Broad []ErrorRule
}

// MatchExact finds the rule equal to key
func (r ErrorRules) MatchExact(key string) (ErrorKind, bool) {
	if key == "" {
		return 0, false
	}
	for _, rule := range r.Exact {
		if rule.Match == key {
			return rule.Kind, true
		}
	}
	return 0, false
}

// MatchBroad finds the first rule contained in message
func (r ErrorRules) MatchBroad(message string) (ErrorKind, bool) {
	if message == "" {
		return 0, false
	}
	for _, rule := range r.Broad {
		if strings.Contains(message, rule.Match) {
			return rule.Kind, true
		}
	}
	return 0, false
}

// ThrowExactlyMatched returns an error when key has an exact rule
func (r ErrorRules) ThrowExactlyMatched(key, feedback string) error {
	if kind, ok := r.MatchExact(key); ok {
		return &Error{Kind: kind, Message: feedback}
	}
	return nil
}

// ThrowBroadlyMatched returns an error when message has a broad rule
func (r ErrorRules) ThrowBroadlyMatched(message, feedback string) error {
	if kind, ok := r.MatchBroad(message); ok {
		return &Error{Kind: kind, Message: feedback}
	}
	return nil
}

// Merge appends other's rules after r's so r keeps precedence
func (r ErrorRules) Merge(other ErrorRules) ErrorRules {
	out := ErrorRules{
		Exact: make([]ErrorRule, 0, len(r.Exact)+len(other.Exact)),
		Broad: make([]ErrorRule, 0, len(r.Broad)+len(other.Broad)),
	}
	out.Exact = append(append(out.Exact, r.Exact...), other.Exact...)
	out.Broad = append(append(out.Broad, r.Broad...), other.Broad...)
	return out
}

package models

import (
	"fmt"
)

// ErrorKind classifies transfer failures
type ErrorKind int

const (
	// Protocol means the peers disagreed on the transfer (counts never matched, bad descriptor, ...)
	Protocol ErrorKind = iota
	// Transport means an underlying attribute read or write failed
	Transport
	// Cancelled means the caller aborted the transfer or its deadline passed
	Cancelled
	// Handler means the application handler failed to produce a response
	Handler
)

func (k ErrorKind) String() string {
	switch k {
	case Protocol:
		return "protocol error"
	case Transport:
		return "transport error"
	case Cancelled:
		return "cancelled"
	case Handler:
		return "handler error"
	}
	return "unknown error"
}

// TransferError is returned by every failed transfer step
type TransferError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

func (e *TransferError) Unwrap() error { return e.Err }

// Is matches any TransferError of the same kind, so errors.Is(err, ErrCancelled) works
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrProtocol  = &TransferError{Kind: Protocol}
	ErrTransport = &TransferError{Kind: Transport}
	ErrCancelled = &TransferError{Kind: Cancelled}
	ErrHandler   = &TransferError{Kind: Handler}
)

// NewTransferError wraps err as a failure of kind during op
func NewTransferError(kind ErrorKind, op string, err error) error {
	return &TransferError{Kind: kind, Op: op, Err: err}
}

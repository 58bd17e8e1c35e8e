package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorKind int

const (
	kindUnknown errorKind = iota
	kindNotFound
	kindConflict
	kindUnavailable
)

// Error classifies a Firestore failure so repositories can expose the
// not-found/conflict/unavailable distinction without leaking gRPC codes.
type Error struct {
	op   string
	kind errorKind
	err  error
}

// WrapError maps the raw client error onto the repository error taxonomy.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := kindUnknown
	switch {
	case isIteratorDone(err):
		kind = kindNotFound
	case errors.Is(err, context.DeadlineExceeded):
		kind = kindUnavailable
	default:
		switch status.Code(err) {
		case codes.NotFound:
			kind = kindNotFound
		case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
			kind = kindConflict
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
			kind = kindUnavailable
		}
	}

	return &Error{op: op, kind: kind, err: err}
}

// NotFoundError builds a not-found classification without an underlying
// client error, for query paths that return zero documents.
func NotFoundError(op string) error {
	return &Error{op: op, kind: kindNotFound, err: iterator.Done}
}

// ConflictError builds a conflict classification for uniqueness violations
// detected by application logic inside a transaction.
func ConflictError(op string, err error) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &Error{op: op, kind: kindConflict, err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("firestore: %s: %v", e.op, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// IsNotFound reports whether the document was absent.
func (e *Error) IsNotFound() bool { return e.kind == kindNotFound }

// IsConflict reports whether a uniqueness or precondition check failed.
func (e *Error) IsConflict() bool { return e.kind == kindConflict }

// IsUnavailable reports whether the failure is transient infrastructure.
func (e *Error) IsUnavailable() bool { return e.kind == kindUnavailable }

func isIteratorDone(err error) bool {
	return errors.Is(err, iterator.Done)
}

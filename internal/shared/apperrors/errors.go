// Package apperrors defines the error kinds every Firestore RPC handler's
// outer guard converts to a gRPC status, per spec.md §4.6 and §7:
// InvalidArgument, NotFound, Unimplemented, Internal.
package apperrors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind identifies which gRPC status an AppError maps to.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindUnimplemented
)

// AppError is the only error type handlers are expected to construct
// deliberately; anything else reaching the outer guard is treated as
// KindInternal.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// InvalidArgument wraps a malformed-input error (bad path, missing field).
func InvalidArgument(message string, err error) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: message, Err: err}
}

// NotFound wraps a missing-document error.
func NotFound(message string, err error) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err}
}

// Unimplemented wraps a stubbed-RPC error.
func Unimplemented(message string) *AppError {
	return &AppError{Kind: KindUnimplemented, Message: message}
}

// Internal wraps an unexpected/codec error. The identifying message is
// kept at the front; the wrapped error's raw text is not otherwise leaked
// past the handler boundary (spec.md §7).
func Internal(rpc string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error in " + rpc, Err: err}
}

// ToStatus converts any error into a gRPC status, defaulting to Internal
// for errors that aren't an *AppError.
func ToStatus(rpc string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal {
			return status.Error(codes.Internal, ae.Message)
		}
		return status.Error(ae.grpcCode(), ae.Error())
	}
	return status.Error(codes.Internal, fmt.Sprintf("internal error in %s: %v", rpc, err))
}

func (e *AppError) grpcCode() codes.Code {
	switch e.Kind {
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindUnimplemented:
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}

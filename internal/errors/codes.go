package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents internal error codes for graph operations
type ErrorCode int

const (
	ErrCodeOK ErrorCode = 0

	// Client errors
	ErrCodeInvalidArgument  ErrorCode = 1000
	ErrCodeVertexNotFound   ErrorCode = 1001
	ErrCodeVertexConflict   ErrorCode = 1002
	ErrCodeMalformedPayload ErrorCode = 1003
	ErrCodeEdgeConflict     ErrorCode = 1004

	// Server errors
	ErrCodeInternal      ErrorCode = 2000
	ErrCodeUnavailable   ErrorCode = 2001
	ErrCodeMisconfigured ErrorCode = 2002
)

// GraphError is a structured error carrying a code and context
type GraphError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *GraphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GraphError) Unwrap() error {
	return e.Cause
}

// ToGRPCStatus converts the error to a gRPC status
func (e *GraphError) ToGRPCStatus() *status.Status {
	return status.New(e.toGRPCCode(), e.Error())
}

func (e *GraphError) toGRPCCode() codes.Code {
	switch e.Code {
	case ErrCodeOK:
		return codes.OK
	case ErrCodeInvalidArgument, ErrCodeMalformedPayload:
		return codes.InvalidArgument
	case ErrCodeVertexNotFound:
		return codes.NotFound
	case ErrCodeVertexConflict, ErrCodeEdgeConflict:
		return codes.AlreadyExists
	case ErrCodeUnavailable:
		return codes.Unavailable
	case ErrCodeMisconfigured:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// NewGraphError creates a new GraphError
func NewGraphError(code ErrorCode, message string, cause error) *GraphError {
	return &GraphError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *GraphError) WithDetail(key string, value interface{}) *GraphError {
	e.Details[key] = value
	return e
}

func InvalidArgument(message string, cause error) *GraphError {
	return NewGraphError(ErrCodeInvalidArgument, message, cause)
}

func VertexNotFound(key string) *GraphError {
	return NewGraphError(ErrCodeVertexNotFound, fmt.Sprintf("vertex not found: %s", key), nil).
		WithDetail("key", key)
}

func VertexConflict(key string) *GraphError {
	return NewGraphError(ErrCodeVertexConflict, fmt.Sprintf("vertex already exists: %s", key), nil).
		WithDetail("key", key)
}

func EdgeConflict(from, to, label string) *GraphError {
	return NewGraphError(ErrCodeEdgeConflict, fmt.Sprintf("edge already exists: %s->%s (%s)", from, to, label), nil).
		WithDetail("from", from).
		WithDetail("to", to).
		WithDetail("label", label)
}

func MalformedPayload(reason string, cause error) *GraphError {
	return NewGraphError(ErrCodeMalformedPayload, fmt.Sprintf("malformed payload: %s", reason), cause).
		WithDetail("reason", reason)
}

func Unavailable(message string, cause error) *GraphError {
	return NewGraphError(ErrCodeUnavailable, message, cause)
}

func Misconfigured(message string) *GraphError {
	return NewGraphError(ErrCodeMisconfigured, message, nil)
}

func InternalError(message string, cause error) *GraphError {
	return NewGraphError(ErrCodeInternal, message, cause)
}

// IsGraphError checks if an error is, or wraps, a GraphError
func IsGraphError(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ErrCodeInternal
}

func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	code := GetCode(err)
	return code == ErrCodeVertexConflict || code == ErrCodeEdgeConflict
}

func IsNotFound(err error) bool {
	return err != nil && GetCode(err) == ErrCodeVertexNotFound
}

// ToStatusError converts any error to a gRPC status error
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.ToGRPCStatus().Err()
	}
	return status.Error(codes.Internal, err.Error())
}

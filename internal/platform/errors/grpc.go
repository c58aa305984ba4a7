package apperrors

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is the error domain attached to gRPC error details.
const Domain = "gametune"

// GRPCCode maps an application error onto a gRPC status code.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrConflict):
		return codes.Aborted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// ToGRPCStatus converts err to a gRPC status error. Validation failures list
// every violated rule as BadRequest field violations.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	st := status.New(GRPCCode(err), err.Error())

	var verr *ValidationError
	if errors.As(err, &verr) {
		br := &errdetails.BadRequest{}
		for _, v := range verr.Violations {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Message,
				Reason:      v.Rule,
			})
		}
		detailed, derr := st.WithDetails(br, &errdetails.ErrorInfo{Reason: "VALIDATION_FAILED", Domain: Domain})
		if derr != nil {
			return st.Err()
		}
		return detailed.Err()
	}
	return st.Err()
}

// FromGRPCStatus restores the sentinel behind a status error so callers on
// the client side can keep using errors.Is.
func FromGRPCStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		verr := &ValidationError{Subject: "request"}
		for _, detail := range st.Details() {
			if br, ok := detail.(*errdetails.BadRequest); ok {
				for _, fv := range br.GetFieldViolations() {
					verr.Violations = append(verr.Violations, Violation{Field: fv.GetField(), Rule: fv.GetReason(), Message: fv.GetDescription()})
				}
			}
		}
		if len(verr.Violations) > 0 {
			return verr
		}
		return errors.Join(ErrInvalidInput, errors.New(st.Message()))
	case codes.NotFound:
		return errors.Join(ErrNotFound, errors.New(st.Message()))
	case codes.Aborted:
		return errors.Join(ErrConflict, errors.New(st.Message()))
	default:
		return err
	}
}

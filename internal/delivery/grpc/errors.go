package grpc

import (
	"errors"

	"github.com/vogiaan1904/thequeue/internal/service"
	pkgErrors "github.com/vogiaan1904/thequeue/pkg/errors"
	"google.golang.org/grpc/codes"
)

var (
	errSessionNotFound = pkgErrors.NewGRPCError(codes.NotFound, "TQ001", "Session not found")
	errRequestNotFound = pkgErrors.NewGRPCError(codes.NotFound, "TQ002", "Request not found")
	errSessionInactive = pkgErrors.NewGRPCError(codes.FailedPrecondition, "TQ003", "Session is not active")
	errInvalidStatus   = pkgErrors.NewGRPCError(codes.InvalidArgument, "TQ004", "Invalid status")
	errInvalidMutation = pkgErrors.NewGRPCError(codes.InvalidArgument, "TQ005", "Invalid request")
	errRequestExists   = pkgErrors.NewGRPCError(codes.AlreadyExists, "TQ006", "Request already exists")
	errInvalidBody     = pkgErrors.NewGRPCError(codes.InvalidArgument, "TQ008", "Invalid message")

	errDJTokenRequired = pkgErrors.NewGRPCError(codes.Unauthenticated, "TQ010", "DJ token required")
	errDJTokenInvalid  = pkgErrors.NewGRPCError(codes.Unauthenticated, "TQ011", "Invalid DJ token")
	errDJTokenForeign  = pkgErrors.NewGRPCError(codes.PermissionDenied, "TQ012", "DJ token was issued for another session")
)

func mapGRPCError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return errSessionNotFound
	case errors.Is(err, service.ErrRequestNotFound):
		return errRequestNotFound
	case errors.Is(err, service.ErrSessionInactive):
		return errSessionInactive
	case errors.Is(err, service.ErrInvalidStatus):
		return errInvalidStatus
	case errors.Is(err, service.ErrInvalidMutation):
		return errInvalidMutation
	case errors.Is(err, service.ErrRequestExists):
		return errRequestExists
	case errors.Is(err, service.ErrTokenEmpty):
		return errDJTokenRequired
	case errors.Is(err, service.ErrTokenWrongSession):
		return errDJTokenForeign
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenInvalidClaims),
		errors.Is(err, service.ErrTokenUnexpectedSignature):
		return errDJTokenInvalid
	default:
		return err
	}
}

package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/thequeue/internal/service"
	pkgErrors "github.com/vogiaan1904/thequeue/pkg/errors"
)

var (
	errSessionNotFound = pkgErrors.NewHTTPError(404, "TQ001", "Session not found")
	errRequestNotFound = pkgErrors.NewHTTPError(404, "TQ002", "Request not found")
	errSessionInactive = pkgErrors.NewHTTPError(404, "TQ003", "Session is not active")
	errInvalidStatus   = pkgErrors.NewHTTPError(400, "TQ004", "Invalid status")
	errInvalidMutation = pkgErrors.NewHTTPError(400, "TQ005", "Invalid request")
	errRequestExists   = pkgErrors.NewHTTPError(409, "TQ006", "Request already exists")
	errSlugExhausted   = pkgErrors.NewHTTPError(503, "TQ007", "Could not allocate a session slug")
	errInvalidBody     = pkgErrors.NewHTTPError(400, "TQ008", "Invalid request body")
	errValidation      = pkgErrors.NewHTTPError(400, "TQ009", "Validation failed")

	errDJTokenRequired = pkgErrors.NewHTTPError(401, "TQ010", "DJ token required")
	errDJTokenInvalid  = pkgErrors.NewHTTPError(401, "TQ011", "Invalid DJ token")
	errDJTokenForeign  = pkgErrors.NewHTTPError(403, "TQ012", "DJ token was issued for another session")

	errAdminNotConfigured = pkgErrors.NewHTTPError(500, "TQ013", "admin authentication not configured")
	errAdminUnauthorized  = pkgErrors.NewHTTPError(401, "TQ014", "Invalid admin token")
)

func mapHTTPError(err error) error {
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
	case errors.Is(err, service.ErrSlugExhausted):
		return errSlugExhausted
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

// validationDetails lists failed fields as "field: rule".
func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field()+": "+fe.Tag())
	}
	return out
}

func isHTTPError(err error) bool {
	var httpErr *pkgErrors.HTTPError
	return errors.As(err, &httpErr)
}

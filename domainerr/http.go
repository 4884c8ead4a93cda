package domainerr

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a domain error to the HTTP status code the API returns for
// it. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		invalidTransition  *InvalidTransitionError
		notBookable        *NotBookableError
		documentMissing    *DocumentMissingError
		conflict           *ConflictError
		duplicateApproval  *DuplicateApprovalError
		roleNotAuthorized  *RoleNotAuthorizedError
		planDefinition     *PlanDefinitionError
		conflictingDefault *ConflictingDefaultError
		notFound           *NotFoundError
		externalService    *ExternalServiceError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &roleNotAuthorized):
		return http.StatusForbidden
	case errors.As(err, &invalidTransition),
		errors.As(err, &notBookable),
		errors.As(err, &conflict),
		errors.As(err, &duplicateApproval),
		errors.As(err, &conflictingDefault):
		return http.StatusConflict
	case errors.As(err, &planDefinition):
		return http.StatusUnprocessableEntity
	case errors.As(err, &documentMissing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &externalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package assignment

import (
	"git.home.luguber.info/inful/assignctl/internal/config"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// Error taxonomy. Every sentinel is terminal for the current top-level
// operation; match with errors.Is and read url/status/repository from the
// ClassifiedError context.
var (
	ErrConfiguration          = config.ErrConfiguration
	ErrInvalidInput           = errors.ValidationError("invalid input").Build()
	ErrInvalidPermissionLevel = permission.ErrInvalidLevel

	ErrFetchFailed         = errors.ForgeError("fetch failed").Build()
	ErrReconcileReadFailed = errors.ReconcileError("reading observed permission state failed").Build()

	ErrProvisionFailed      = errors.ProvisionError("provisioning failed").Build()
	ErrReconcileWriteFailed = errors.ReconcileError("applying permission mutation failed").Build()
	ErrDeleteFailed         = errors.ProvisionError("repository deletion failed").Build()
	ErrMissingRequiredTeam  = errors.NewError(errors.CategoryNotFound, "required team not found").Fatal().UserAction().Build()
	ErrInvalidTemplate      = errors.ValidationError("invalid template repository").UserAction().Build()

	ErrDeletionNotConfirmed = errors.ValidationError("deletion not confirmed").Build()
)

// invalidInput decorates ErrInvalidInput with a reason.
func invalidInput(reason string) *errors.ClassifiedError {
	return ErrInvalidInput.WithContext("reason", reason)
}

// rewrap re-labels err as sentinel while keeping err's context and cause chain.
func rewrap(sentinel *errors.ClassifiedError, err error) *errors.ClassifiedError {
	out := sentinel.WithCause(err)
	if c, ok := errors.AsClassified(err); ok {
		out = out.WithContextMap(c.Context())
	}
	return out
}

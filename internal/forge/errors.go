package forge

import (
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

var (
	// ErrAuthRequired signals that no token was supplied.
	ErrAuthRequired = errors.AuthError("authentication token required for forge client").Build()

	// ErrUnexpectedStatus signals a status the caller did not expect.
	ErrUnexpectedStatus = errors.ForgeError("unexpected API status").Build()

	// ErrOffHostTarget signals an absolute URL outside the configured API host.
	ErrOffHostTarget = errors.ForgeError("refusing request to a host other than the API host").Build()
)

// UnexpectedStatus decorates ErrUnexpectedStatus with the response details.
func UnexpectedStatus(resp *Response) *errors.ClassifiedError {
	return ErrUnexpectedStatus.
		WithContext("method", resp.Method).
		WithContext("url", resp.URL).
		WithContext("status", resp.StatusCode).
		WithContext("response", resp.Snippet())
}

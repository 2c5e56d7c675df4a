package platform

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by the tool layer when no credential is
// held. Domain operations never see it; the preamble check fires first.
var ErrNotAuthenticated = errors.New("not authenticated")

// ExternalToolError reports a failed invocation of the specter binary:
// non-zero exit, spawn failure, or output exceeding the buffer cap.
type ExternalToolError struct {
	Command string
	Detail  string
}

func (e *ExternalToolError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("specter %s failed", e.Command)
	}
	return fmt.Sprintf("specter %s failed: %s", e.Command, e.Detail)
}

// APIError reports a non-2xx response from the platform API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Detail)
}

// ValidationError reports a missing or malformed parameter, caught before
// any subprocess or HTTP call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError reports an empty result set for a name-keyed lookup.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

// CredentialCreationError reports that the token-creation flow produced no
// usable token.
type CredentialCreationError struct {
	Msg string
}

func (e *CredentialCreationError) Error() string {
	return e.Msg
}

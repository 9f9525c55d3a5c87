package dialogue

import "errors"

// Error kinds absorbed by the deterministic fallbacks. They are never surfaced
// past the decision or escalation boundary; calling code matches on them to
// audit which failure produced a fallback.
var (
	// ErrExternalService indicates a collaborator timeout, network failure,
	// or non-success response.
	ErrExternalService = errors.New("external service failure")

	// ErrMalformedResponse indicates a collaborator answer that is not
	// parseable or not schema-conformant.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidTransition indicates the model proposed a next state that is
	// not legal per the transition graph.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPersistence indicates a storage read or write error.
	ErrPersistence = errors.New("persistence failure")
)

// FallbackCause names the error kind that routed a decision to the fallback.
func FallbackCause(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrExternalService):
		return "external_service_failure"
	case err == nil:
		return ""
	default:
		return "external_service_failure"
	}
}

package schema

var (
	ErrInternal = &Error{
		Type:    "generic.internal",
		Message: "An internal error occurred.",
	}
	ErrNotFound = &Error{
		Type:    "generic.notFound",
		Message: "Resource not found.",
	}
	ErrMethodNotAllowed = &Error{
		Type:    "generic.methodNotAllowed",
		Message: "Method not allowed.",
	}
	ErrInvalidForm = &Error{
		Type:    "generic.invalidForm",
		Message: "The request body is not a valid form.",
	}

	ErrProviderNotInitialized = &Error{
		Type:    "login.providerNotInitialized",
		Message: "The identity provider is not initialized yet.",
	}
	ErrNoLoginFlow = &Error{
		Type:    "login.noFlow",
		Message: "No login flow was initiated.",
	}
	ErrInvalidLoginState = &Error{
		Type:    "login.invalidState",
		Message: "The login flow state is invalid.",
	}
	ErrLoginStateMismatch = &Error{
		Type:    "login.stateMismatch",
		Message: "The login flow states do not match.",
	}
	ErrInvalidLoginCode = &Error{
		Type:    "login.invalidCode",
		Message: "The login code is invalid or expired.",
	}
	ErrNoIDToken = &Error{
		Type:    "login.noIDToken",
		Message: "The identity provider did not return an ID token.",
	}
)

// ErrorResponse represents the response structure sent by the web client whenever errors occurred
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error represents a single error present in the ErrorResponse
type Error struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

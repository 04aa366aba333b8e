// Package identity defines the capability interface of external identity providers issuing credentials.
package identity

import (
	"context"
	"html/template"

	"github.com/go-chi/chi/v5"
)

// Config configures a provider when it gets initialized
type Config struct {
	// ClientID is the fixed client identifier registered at the provider
	ClientID string

	// AutoSelect allows the provider to sign in silently if the user has an existing session
	AutoSelect bool
}

// CredentialFunc receives every credential the provider issues.
// The credential is opaque and must be passed on as-is.
type CredentialFunc func(ctx context.Context, credential string) error

// Prompt describes the outcome of a sign-in attempt
type Prompt struct {
	// RedirectURL is set if the user agent has to be sent somewhere in order to continue the sign-in
	RedirectURL string
}

// Provider represents an external identity provider
type Provider interface {
	// Initialize configures the provider and registers the callback credentials are delivered to
	Initialize(cfg Config, onCredential CredentialFunc) error

	// Prompt attempts a silent or UI sign-in.
	// A nil prompt means there is nothing the caller has to do.
	Prompt(ctx context.Context) (*Prompt, error)

	// RenderButton renders the sign-in affordance into the element with the given ID
	RenderButton(target string) (template.HTML, error)

	// Routes registers the HTTP endpoints the provider delivers credentials through
	Routes(router chi.Router)
}
